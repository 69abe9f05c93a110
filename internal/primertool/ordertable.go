package primertool

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Row is one line of the primer order table. Every accepted pair
// contributes two rows, forward then reverse.
type Row struct {
	// order date, dd.mm.yyyy
	Date string `json:"date"`

	// operator initials
	Person string `json:"person,omitempty"`

	// order name and sequence, e.g. "SHOX-E02F;ACGT..."
	Primer string `json:"primer"`

	// gene symbol, empty for position queries
	Gene string `json:"gene,omitempty"`

	// transcript accession, empty for position queries
	NMNumber string `json:"nmNumber,omitempty"`

	// mean melting temperature of the pair, degrees C
	Tm float64 `json:"tm"`

	// amplicon length, bp
	ProductSize int `json:"bp"`
}

// OrderTable is the result of a primer design run, ready to be handed
// to an oligo vendor.
type OrderTable struct {
	Rows []Row `json:"rows"`
}

// Append adds another table's rows to this one
func (t *OrderTable) Append(other *OrderTable) {
	t.Rows = append(t.Rows, other.Rows...)
}

// WriteTSV writes the table as tab separated values with a header row
func (t *OrderTable) WriteTSV(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "date\tperson\tprimer\tgene\tnm_number\tmt\tbp")
	for _, row := range t.Rows {
		fmt.Fprintf(
			tw, "%s\t%s\t%s\t%s\t%s\t%.0f\t%d\n",
			row.Date, row.Person, row.Primer, row.Gene, row.NMNumber, row.Tm, row.ProductSize,
		)
	}
	return tw.Flush()
}

// WriteJSON writes the table as indented JSON
func (t *OrderTable) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// orderDate is the date stamped on order rows
func orderDate() string {
	return time.Now().Format("02.01.2006")
}

// exonRows builds the two order rows for a pair designed against an
// exon. Order names are GENE-E{NN}F and GENE-E{NN}R. On the minus
// strand primer3's RIGHT primer reads in transcript direction, so it
// becomes the forward order primer.
func exonRows(gene *Gene, exonNumber int, pair Pair, person string) []Row {
	forward, reverse := pair.Left.Seq, pair.Right.Seq
	if gene.Strand == "-" {
		forward, reverse = pair.Right.Seq, pair.Left.Seq
	}

	date := orderDate()
	row := Row{
		Date:        date,
		Person:      person,
		Gene:        gene.Name,
		NMNumber:    gene.NMNumber,
		Tm:          pair.Tm(),
		ProductSize: pair.ProductSize,
	}

	fwd := row
	fwd.Primer = fmt.Sprintf("%s-E%02dF;%s", gene.Name, exonNumber, forward)
	rev := row
	rev.Primer = fmt.Sprintf("%s-E%02dR;%s", gene.Name, exonNumber, reverse)

	return []Row{fwd, rev}
}

// positionRows builds the two order rows for a pair designed against a
// raw genomic interval. Order names carry the chromosome and the
// queried start/end positions.
func positionRows(chromosome string, start, end int, pair Pair, person string) []Row {
	date := orderDate()
	row := Row{
		Date:        date,
		Person:      person,
		Tm:          pair.Tm(),
		ProductSize: pair.ProductSize,
	}

	fwd := row
	fwd.Primer = fmt.Sprintf("%s-%dF;%s", chromosome, start, pair.Left.Seq)
	rev := row
	rev.Primer = fmt.Sprintf("%s-%dR;%s", chromosome, end, pair.Right.Seq)

	return []Row{fwd, rev}
}
