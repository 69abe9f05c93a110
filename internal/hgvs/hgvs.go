// Package hgvs parses HGVS sequence variant descriptions and talks to
// the Mutalyzer name checker to normalize them and map coding
// descriptions onto the genome.
package hgvs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError reports an HGVS description that could not be parsed
type ParseError struct {
	Input string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %q: %s", e.Input, e.Msg)
}

// Position is one coordinate of an HGVS description. For coding (c.)
// descriptions the value is transcript-relative and may carry an
// intronic offset; for genomic (g.) descriptions it is a plain base
// position.
type Position struct {
	// base position; negative for 5' UTR coding positions
	Value int

	// intronic offset, e.g. +5 in c.1234+5G>A
	Offset int

	// true for 3' UTR coding positions (the *NN form)
	UTR3 bool
}

// String renders the position back into HGVS form
func (p Position) String() string {
	var b strings.Builder
	if p.UTR3 {
		b.WriteByte('*')
	}
	b.WriteString(strconv.Itoa(p.Value))
	if p.Offset != 0 {
		fmt.Fprintf(&b, "%+d", p.Offset)
	}
	return b.String()
}

// Intronic reports whether the position lies inside an intron
func (p Position) Intronic() bool { return p.Offset != 0 }

// Variant is a parsed HGVS description
type Variant struct {
	// sequence accession as given, e.g. NM_000451.3 or NC_000023.11
	Accession string

	// coordinate type: "c" for coding, "g" for genomic
	Type string

	// the described interval; End equals Start for single positions
	Start Position
	End   Position

	// the edit, e.g. "G>A", "del", "dup", "insTT"
	Edit string
}

// IsCoding reports whether the description uses coding coordinates
func (v *Variant) IsCoding() bool { return v.Type == "c" }

// String renders the variant back into HGVS form
func (v *Variant) String() string {
	pos := v.Start.String()
	if v.End != v.Start {
		pos += "_" + v.End.String()
	}
	return fmt.Sprintf("%s:%s.%s%s", v.Accession, v.Type, pos, v.Edit)
}

var (
	// gene symbols in parentheses, e.g. NM_003165.6(STXBP1):c.1702G>A
	geneSymbolRe = regexp.MustCompile(`\([^)]*\)`)

	// accession:type.positions+edit
	variantRe = regexp.MustCompile(`^([A-Za-z]{2}_[0-9]+(?:\.[0-9]+)?):([a-z])\.(.+)$`)

	// start[_end] followed by the edit
	intervalRe = regexp.MustCompile(`^(\*?-?[0-9]+(?:[+-][0-9]+)?)(?:_(\*?-?[0-9]+(?:[+-][0-9]+)?))?(.*)$`)

	positionRe = regexp.MustCompile(`^(\*)?(-?[0-9]+)([+-][0-9]+)?$`)
)

// Parse parses an HGVS description. Gene symbols in parentheses are
// dropped first; whitespace is ignored.
func Parse(description string) (*Variant, error) {
	cleaned := strings.ReplaceAll(description, " ", "")
	cleaned = geneSymbolRe.ReplaceAllString(cleaned, "")

	m := variantRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil, &ParseError{Input: description, Msg: "expected accession:type.position form"}
	}

	iv := intervalRe.FindStringSubmatch(m[3])
	if iv == nil {
		return nil, &ParseError{Input: description, Msg: "could not parse the variant position"}
	}

	start, err := parsePosition(iv[1])
	if err != nil {
		return nil, &ParseError{Input: description, Msg: err.Error()}
	}

	end := start
	if iv[2] != "" {
		if end, err = parsePosition(iv[2]); err != nil {
			return nil, &ParseError{Input: description, Msg: err.Error()}
		}
	}

	return &Variant{
		Accession: m[1],
		Type:      m[2],
		Start:     start,
		End:       end,
		Edit:      iv[3],
	}, nil
}

func parsePosition(s string) (Position, error) {
	m := positionRe.FindStringSubmatch(s)
	if m == nil {
		return Position{}, fmt.Errorf("invalid position %q", s)
	}

	value, err := strconv.Atoi(m[2])
	if err != nil {
		return Position{}, fmt.Errorf("invalid position %q", s)
	}

	var offset int
	if m[3] != "" {
		if offset, err = strconv.Atoi(m[3]); err != nil {
			return Position{}, fmt.Errorf("invalid intronic offset in %q", s)
		}
	}

	return Position{Value: value, Offset: offset, UTR3: m[1] == "*"}, nil
}

// SplitAccession splits a versioned accession into its name and
// version. Accessions without a version default to version 1.
func SplitAccession(accession string) (name string, version int) {
	name, versionStr, found := strings.Cut(accession, ".")
	if !found {
		return name, 1
	}

	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return name, 1
	}
	return name, version
}
