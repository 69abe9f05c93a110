package primertool

import "strings"

// Gene is one refGene row: the transcript's position and exon structure
// on the genome.
type Gene struct {
	// the transcript accession without version, e.g. NM_000451
	NMNumber string

	// chromosome the transcript lies on, e.g. chrX
	Chromosome string

	// "+" or "-"
	Strand string

	// gene symbol, e.g. SHOX
	Name string

	// number of exons
	ExonCount int

	// coding sequence bounds, genomic
	CDSStart int
	CDSEnd   int

	// per-exon bounds in genomic order (ascending regardless of strand)
	ExonStarts []int
	ExonEnds   []int
}

// CheckNMNumber validates a transcript accession
func CheckNMNumber(nm string) error {
	if !strings.HasPrefix(nm, "NM_") {
		return inputErrorf(`given NM number %q is invalid, NM numbers start with "NM_"`, nm)
	}
	return nil
}

// ExonBounds returns the genomic start and end of the n-th exon.
// Exons are numbered 1..ExonCount in transcript order, so on the minus
// strand the first exon is the last interval in genomic order.
func (g *Gene) ExonBounds(n int) (start, end int, err error) {
	if n < 1 || n > g.ExonCount {
		return 0, 0, inputErrorf(
			"the given exon number (%d) is out of range for gene %s with %d exons, use the genomic position instead",
			n, g.Name, g.ExonCount,
		)
	}

	idx := n - 1
	if g.Strand == "-" {
		idx = g.ExonCount - n
	}
	return g.ExonStarts[idx], g.ExonEnds[idx], nil
}

// Locus describes where a genomic interval falls relative to a gene's
// exon structure.
type Locus struct {
	// transcript-order exon number, 0 when not in an exon
	ExonNumber int

	// the interval, genomic
	Start int
	End   int

	// true when the whole interval lies inside one exon
	InExon bool

	// length of the containing exon, 0 when not in an exon
	ExonLen int
}

// Locate determines whether [start, end] lies inside one of the gene's
// exons and, if so, which transcript-order exon that is.
func (g *Gene) Locate(start, end int) Locus {
	locus := Locus{Start: start, End: end}

	for exon := 0; exon < g.ExonCount; exon++ {
		if g.ExonStarts[exon] <= start && end <= g.ExonEnds[exon] {
			locus.InExon = true
			locus.ExonLen = g.ExonEnds[exon] - g.ExonStarts[exon]
			if g.Strand == "-" {
				locus.ExonNumber = g.ExonCount - exon
			} else {
				locus.ExonNumber = exon + 1
			}
		}
	}

	return locus
}
