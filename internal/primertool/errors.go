package primertool

import "fmt"

// InputError reports invalid user input: a bad assembly, chromosome,
// NM number, exon number or HGVS description.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// inputErrorf builds an InputError from a format string
func inputErrorf(format string, args ...interface{}) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// GenomeError reports a failure to retrieve genomic sequence or
// annotation for an otherwise valid input.
type GenomeError struct {
	Msg string
	Err error
}

func (e *GenomeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GenomeError) Unwrap() error { return e.Err }

// MutalyzerError reports a failed Mutalyzer API exchange. Codes holds
// the error codes and details returned by the API, when available.
type MutalyzerError struct {
	Msg   string
	Codes map[string]string
}

func (e *MutalyzerError) Error() string {
	if len(e.Codes) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Codes)
}

// ExonLengthError is returned when a variant falls into an exon that is
// too long to sequence in one insert. It carries the genomic coordinates
// of the variant so the user can fall back to a position query.
type ExonLengthError struct {
	Chromosome string
	Start      int
	End        int
	ExonLen    int
	MaxInsert  int
}

func (e *ExonLengthError) Error() string {
	return fmt.Sprintf(
		"exon length %d exceeds the max insert size %d, use the genomic position instead: %s:%d-%d",
		e.ExonLen, e.MaxInsert, e.Chromosome, e.Start, e.End,
	)
}

// NoPrimerFoundError is returned when the design loop exhausted every
// window without an accepted primer pair.
type NoPrimerFoundError struct {
	Gene       string
	ExonNumber int
	Chromosome string
	Start      int
	End        int
}

func (e *NoPrimerFoundError) Error() string {
	if e.Gene != "" {
		return fmt.Sprintf(
			"no primers found for exon %d of gene %s, try the genomic position %s:%d-%d instead",
			e.ExonNumber, e.Gene, e.Chromosome, e.Start, e.End,
		)
	}
	return fmt.Sprintf("no primers found for %s:%d-%d", e.Chromosome, e.Start, e.End)
}

// IntronicPositionError is returned for intronic variants whose offset
// is too large to be dropped automatically.
type IntronicPositionError struct {
	Variant string
	Offset  int
}

func (e *IntronicPositionError) Error() string {
	return fmt.Sprintf(
		"variant %s is intronic with offset %d, too far from the exon to correct automatically; use the genomic position instead",
		e.Variant, e.Offset,
	)
}
