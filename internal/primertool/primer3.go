package primertool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/IHGGM-Aachen/primertool/config"
)

// Primer is one half of a primer pair as reported by primer3
type Primer struct {
	// primer sequence, 5'->3'
	Seq string `json:"seq"`

	// melting temperature, degrees C
	Tm float64 `json:"tm"`

	// GC content, percent
	GC float64 `json:"gc"`

	// primer3 penalty score
	Penalty float64 `json:"penalty"`

	// start index within the submitted template
	Start int `json:"-"`
}

// Pair is a forward/reverse primer pair and its amplicon
type Pair struct {
	// the LEFT primer, binds the plus strand
	Left Primer `json:"left"`

	// the RIGHT primer, binds the minus strand
	Right Primer `json:"right"`

	// amplicon length, bp
	ProductSize int `json:"productSize"`

	// combined primer3 pair penalty
	Penalty float64 `json:"penalty"`
}

// Tm is the rounded mean melting temperature of the two primers
func (p Pair) Tm() float64 {
	mean := (p.Left.Tm + p.Right.Tm) / 2
	return float64(int(mean + 0.5))
}

// primer3 is a utility struct for executing primer3 against one
// sequence window
type primer3 struct {
	// the masked template sequence
	seq string

	// identifier written into SEQUENCE_ID, for debugging input files
	id string

	// the design attempt being run
	t target

	// input file
	in *os.File

	// output file
	out *os.File

	// settings forwarded from the config
	conf config.Primer3Config
}

// newPrimer3 creates a primer3 struct for one design attempt
func newPrimer3(id, seq string, t target, conf config.Primer3Config) (*primer3, error) {
	in, err := os.CreateTemp("", "primer3-in-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create primer3 input file: %w", err)
	}
	out, err := os.CreateTemp("", "primer3-out-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create primer3 output file: %w", err)
	}

	return &primer3{
		seq:  strings.ToUpper(seq),
		id:   id,
		t:    t,
		in:   in,
		out:  out,
		conf: conf,
	}, nil
}

// input renders the Boulder-IO settings file and writes it to the
// filesystem. The target is pinned via SEQUENCE_TARGET so both primers
// bracket it; the flank on each side is where primer3 may place them.
func (p *primer3) input() error {
	settings := map[string]string{
		"SEQUENCE_ID":               p.id,
		"SEQUENCE_TEMPLATE":         p.seq,
		"SEQUENCE_TARGET":           fmt.Sprintf("%d,%d", p.t.flank, p.t.length),
		"PRIMER_NUM_RETURN":         strconv.Itoa(p.conf.NumReturn),
		"PRIMER_OPT_SIZE":           strconv.Itoa(p.conf.OptSize),
		"PRIMER_MIN_SIZE":           strconv.Itoa(p.conf.MinSize),
		"PRIMER_MAX_SIZE":           strconv.Itoa(p.conf.MaxSize),
		"PRIMER_OPT_TM":             fmt.Sprintf("%.1f", p.conf.OptTM),
		"PRIMER_MIN_TM":             fmt.Sprintf("%.1f", p.conf.MinTM),
		"PRIMER_MAX_TM":             fmt.Sprintf("%.1f", p.conf.MaxTM),
		"PRIMER_MAX_POLY_X":         strconv.Itoa(p.conf.MaxPolyX),
		"PRIMER_GC_CLAMP":           strconv.Itoa(p.conf.GCClamp),
		"PRIMER_PRODUCT_SIZE_RANGE": fmt.Sprintf("%d-%d", p.t.sizeMin, p.t.sizeMax),
	}

	// deterministic key order so input files diff cleanly
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var file bytes.Buffer
	for _, key := range keys {
		fmt.Fprintf(&file, "%s=%s\n", key, settings[key])
	}
	file.WriteString("=") // required at file's end

	if _, err := p.in.Write(file.Bytes()); err != nil {
		return fmt.Errorf("failed to write primer3 input file %s: %w", p.in.Name(), err)
	}
	return nil
}

// run the primer3 executable against the input file
func (p *primer3) run(ctx context.Context) error {
	p3Cmd := exec.CommandContext(
		ctx,
		p.conf.Path,
		p.in.Name(),
		"-output", p.out.Name(),
		"-strict_tags",
	)

	if output, err := p3Cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute primer3 on input file %s: %s: %w", p.in.Name(), string(output), err)
	}
	return nil
}

// parse reads the Boulder-IO output file into primer pairs
func (p *primer3) parse() ([]Pair, error) {
	fileBytes, err := os.ReadFile(p.out.Name())
	if err != nil {
		return nil, err
	}
	return parseBoulder(string(fileBytes))
}

// close deletes the temporary input and output files
func (p *primer3) close() {
	os.Remove(p.in.Name())
	os.Remove(p.out.Name())
}

// parseBoulder parses primer3's key=value output into primer pairs.
// Zero pairs is not an error here: the design loop treats an empty
// result as a signal to widen the search.
func parseBoulder(file string) ([]Pair, error) {
	results := make(map[string]string)
	for _, line := range strings.Split(file, "\n") {
		keyVal := strings.SplitN(line, "=", 2)
		if len(keyVal) == 2 {
			results[strings.TrimSpace(keyVal[0])] = strings.TrimSpace(keyVal[1])
		}
	}

	if p3Error := results["PRIMER_ERROR"]; p3Error != "" {
		return nil, fmt.Errorf("failed to execute primer3: %s", p3Error)
	}
	if p3Warnings := results["PRIMER_WARNING"]; p3Warnings != "" {
		return nil, fmt.Errorf("warnings executing primer3: %s", p3Warnings)
	}

	count, err := strconv.Atoi(results["PRIMER_PAIR_NUM_RETURNED"])
	if err != nil {
		return nil, fmt.Errorf("missing PRIMER_PAIR_NUM_RETURNED in primer3 output")
	}

	parsePrimer := func(side string, index int) Primer {
		seq := results[fmt.Sprintf("PRIMER_%s_%d_SEQUENCE", side, index)]
		tm, _ := strconv.ParseFloat(results[fmt.Sprintf("PRIMER_%s_%d_TM", side, index)], 64)
		gc, _ := strconv.ParseFloat(results[fmt.Sprintf("PRIMER_%s_%d_GC_PERCENT", side, index)], 64)
		penalty, _ := strconv.ParseFloat(results[fmt.Sprintf("PRIMER_%s_%d_PENALTY", side, index)], 64)

		primerRange := results[fmt.Sprintf("PRIMER_%s_%d", side, index)]
		start, _ := strconv.Atoi(strings.Split(primerRange, ",")[0])
		if side == "RIGHT" {
			// primer3 reports the 5' end of the RIGHT primer, which is
			// the rightmost template index
			start -= len(seq) - 1
		}

		return Primer{Seq: seq, Tm: tm, GC: gc, Penalty: penalty, Start: start}
	}

	pairs := make([]Pair, 0, count)
	for i := 0; i < count; i++ {
		product, _ := strconv.Atoi(results[fmt.Sprintf("PRIMER_PAIR_%d_PRODUCT_SIZE", i)])
		penalty, _ := strconv.ParseFloat(results[fmt.Sprintf("PRIMER_PAIR_%d_PENALTY", i)], 64)

		pairs = append(pairs, Pair{
			Left:        parsePrimer("LEFT", i),
			Right:       parsePrimer("RIGHT", i),
			ProductSize: product,
			Penalty:     penalty,
		})
	}

	return pairs, nil
}
