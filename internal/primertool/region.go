package primertool

import (
	"regexp"
	"strings"
)

// Assembly is a human reference genome build. Only hg19 and hg38 have
// UCSC annotation databases with the tables primertool relies on.
type Assembly string

// the supported genome builds
const (
	Hg19 Assembly = "hg19"
	Hg38 Assembly = "hg38"
)

// ParseAssembly validates a user supplied genome build name
func ParseAssembly(s string) (Assembly, error) {
	switch a := Assembly(strings.ToLower(strings.TrimSpace(s))); a {
	case Hg19, Hg38:
		return a, nil
	default:
		return "", inputErrorf("given genome assembly %q is invalid, only hg19 and hg38 are accepted", s)
	}
}

var (
	// chrX where X is 1-22, X, Y or M. The only names the genome accepts
	chromStrict = regexp.MustCompile(`^chr(X|Y|M|[1-9]|1[0-9]|2[0-2])$`)

	// variations a user may reasonably type: 19, Chr19, X, ...
	chromTolerant = regexp.MustCompile(`^(Chr)?(X|Y|M|[1-9]|1[0-9]|2[0-2])$`)
)

// NormalizeChromosome validates a chromosome name and rewrites tolerant
// spellings ("19", "ChrX") into the strict chrN form.
func NormalizeChromosome(chromosome string) (string, error) {
	chromosome = strings.ReplaceAll(chromosome, " ", "")

	if chromStrict.MatchString(chromosome) {
		return chromosome, nil
	}
	if m := chromTolerant.FindStringSubmatch(chromosome); m != nil {
		return "chr" + m[2], nil
	}

	return "", inputErrorf(`given chromosome %q is invalid, use a valid chromosome (e.g. "chr1", "X", "Y")`, chromosome)
}

// Region is a genomic interval on one chromosome. Positions are 0-based
// and half-open, matching the UCSC table convention.
type Region struct {
	Chromosome string
	Start      int
	End        int
}

// NewRegion validates and normalizes a user supplied genomic interval
func NewRegion(chromosome string, start, end int) (Region, error) {
	chromosome, err := NormalizeChromosome(chromosome)
	if err != nil {
		return Region{}, err
	}
	if start < 0 {
		return Region{}, inputErrorf("start position %d is negative", start)
	}
	if end < start {
		return Region{}, inputErrorf("end position %d is before start position %d", end, start)
	}
	return Region{Chromosome: chromosome, Start: start, End: end}, nil
}

// Length is the number of bases the region spans
func (r Region) Length() int { return r.End - r.Start }
