package primertool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/IHGGM-Aachen/primertool/config"
	"github.com/IHGGM-Aachen/primertool/internal/hgvs"
)

type fakeAnnotator struct {
	gene    *Gene
	geneErr error
	snps    []int
}

func (f *fakeAnnotator) Gene(ctx context.Context, nmNumber string) (*Gene, error) {
	if f.geneErr != nil {
		return nil, f.geneErr
	}
	return f.gene, nil
}

func (f *fakeAnnotator) CommonSNPs(ctx context.Context, chromosome string, start, end int) ([]int, error) {
	return f.snps, nil
}

type fakeSequence struct{}

func (fakeSequence) Sequence(ctx context.Context, chromosome string, start, end int) (string, error) {
	return strings.Repeat("A", end-start), nil
}

// fakePCR rejects the first rejectFirst pairs it is asked about
type fakePCR struct {
	mu          sync.Mutex
	rejectFirst int
	calls       int
}

func (f *fakePCR) UniquelyBinding(ctx context.Context, forward, reverse string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.calls > f.rejectFirst, nil
}

type fakeNormalizer struct {
	norm *hgvs.Normalization
	err  error
}

func (f *fakeNormalizer) Normalize(ctx context.Context, variant string) (*hgvs.Normalization, error) {
	return f.norm, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Design:  config.DesignConfig{MinInsert: 200, MaxInsert: 800, ExonBorderPad: 40},
		Primer3: testPrimer3Config(),
	}
}

func testGenerator(db Annotator, pcr UniquenessChecker, norm Normalizer) *Generator {
	if db == nil {
		db = &fakeAnnotator{gene: plusGene()}
	}
	if pcr == nil {
		pcr = &fakePCR{}
	}
	return NewGenerator(Hg38, "AB", testConfig(), db, fakeSequence{}, pcr, norm, zap.NewNop())
}

func TestGenerator_searchWindow(t *testing.T) {
	t.Run("pair found on the first attempt", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return []Pair{testPair()}, nil
		}

		pair, ok, err := g.searchWindow(context.Background(), "chrX", window{start: 1000, end: 1300})
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected a pair")
		}
		if pair.Left.Seq != testPair().Left.Seq {
			t.Errorf("pair = %+v", pair)
		}
	})

	t.Run("flank grows while primer3 comes back empty", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		var flanks []int
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			flanks = append(flanks, tg.flank)
			if tg.flank < 300 {
				return nil, nil
			}
			return []Pair{testPair()}, nil
		}

		_, ok, err := g.searchWindow(context.Background(), "chrX", window{start: 1000, end: 1300})
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected a pair")
		}
		want := []int{100, 200, 300}
		if len(flanks) != len(want) {
			t.Fatalf("flanks = %v, want %v", flanks, want)
		}
		for i := range want {
			if flanks[i] != want[i] {
				t.Errorf("flanks = %v, want %v", flanks, want)
			}
		}
	})

	t.Run("window widens when every pair binds multiple sites", func(t *testing.T) {
		g := testGenerator(nil, &fakePCR{rejectFirst: 1}, nil)
		var targets []target
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			targets = append(targets, tg)
			return []Pair{testPair()}, nil
		}

		_, ok, err := g.searchWindow(context.Background(), "chrX", window{start: 1000, end: 1300})
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected a pair after widening")
		}
		if len(targets) != 2 {
			t.Fatalf("got %d attempts, want 2", len(targets))
		}
		// the second attempt covers a window widened by searchStep on
		// both sides, with the flank reset
		if targets[1].start != 900 || targets[1].end != 1400 {
			t.Errorf("widened target = %+v", targets[1])
		}
		if targets[1].flank != searchStep {
			t.Errorf("flank after widening = %d, want %d", targets[1].flank, searchStep)
		}
	})

	t.Run("search stops at the size budget", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		attempts := 0
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			attempts++
			return nil, nil
		}

		_, ok, err := g.searchWindow(context.Background(), "chrX", window{start: 1000, end: 1300})
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("expected the search to give up")
		}
		// length 300, sizeMax = 300 + flank/2 must stay <= 800, so the
		// last attempted flank is 1000
		if attempts != 10 {
			t.Errorf("attempts = %d, want 10", attempts)
		}
	})
}

func TestGenerator_Exon(t *testing.T) {
	t.Run("order rows for one exon", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return []Pair{testPair()}, nil
		}

		table, err := g.Exon(context.Background(), "NM_000451", 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(table.Rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(table.Rows))
		}
		if !strings.HasPrefix(table.Rows[0].Primer, "SHOX-E02F;") {
			t.Errorf("forward row = %+v", table.Rows[0])
		}
		if table.Rows[0].Person != "AB" {
			t.Errorf("person = %q", table.Rows[0].Person)
		}
	})

	t.Run("no primer found", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return nil, nil
		}

		_, err := g.Exon(context.Background(), "NM_000451", 2)
		var notFound *NoPrimerFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("err = %v, want NoPrimerFoundError", err)
		}
		if notFound.Gene != "SHOX" || notFound.ExonNumber != 2 {
			t.Errorf("err = %+v", notFound)
		}
	})

	t.Run("unknown transcript", func(t *testing.T) {
		g := testGenerator(&fakeAnnotator{geneErr: ErrGeneNotFound}, nil, nil)

		_, err := g.Exon(context.Background(), "NM_999999", 1)
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("err = %v, want InputError", err)
		}
	})

	t.Run("invalid accession", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)

		_, err := g.Exon(context.Background(), "NR_024540", 1)
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("err = %v, want InputError", err)
		}
	})
}

func TestGenerator_Gene(t *testing.T) {
	g := testGenerator(nil, nil, nil)
	g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
		return []Pair{testPair()}, nil
	}

	table, err := g.Gene(context.Background(), "NM_000451")
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(table.Rows))
	}

	// rows keep exon order even though exons run concurrently
	wantPrefixes := []string{"SHOX-E01F;", "SHOX-E01R;", "SHOX-E02F;", "SHOX-E02R;", "SHOX-E03F;", "SHOX-E03R;"}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(table.Rows[i].Primer, prefix) {
			t.Errorf("row %d = %q, want prefix %q", i, table.Rows[i].Primer, prefix)
		}
	}
}

func TestGenerator_Position(t *testing.T) {
	t.Run("one pair per window", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return []Pair{testPair()}, nil
		}

		table, err := g.Position(context.Background(), "X", 624300, 624700)
		if err != nil {
			t.Fatal(err)
		}
		if len(table.Rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(table.Rows))
		}
		if !strings.HasPrefix(table.Rows[0].Primer, "chrX-624300F;") {
			t.Errorf("forward row = %q", table.Rows[0].Primer)
		}
		if !strings.HasPrefix(table.Rows[1].Primer, "chrX-624700R;") {
			t.Errorf("reverse row = %q", table.Rows[1].Primer)
		}
	})

	t.Run("long interval spans several pairs", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return []Pair{testPair()}, nil
		}

		table, err := g.Position(context.Background(), "chr2", 1000, 2800)
		if err != nil {
			t.Fatal(err)
		}
		// 1800 bp split into 3 chunks, 2 rows each
		if len(table.Rows) != 6 {
			t.Fatalf("got %d rows, want 6", len(table.Rows))
		}
	})

	t.Run("invalid chromosome", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)

		_, err := g.Position(context.Background(), "chr23", 100, 200)
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("err = %v, want InputError", err)
		}
	})

	t.Run("no primer found", func(t *testing.T) {
		g := testGenerator(nil, nil, nil)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return nil, nil
		}

		_, err := g.Position(context.Background(), "chrX", 624300, 624700)
		var notFound *NoPrimerFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("err = %v, want NoPrimerFoundError", err)
		}
	})
}

// variantNormalization maps a coding description onto a genomic interval
func variantNormalization(accession string, start, end int) *hgvs.Normalization {
	return &hgvs.Normalization{
		CodingAccession: accession,
		Coding:          &hgvs.Variant{Accession: accession, Type: "c"},
		Genomic: &hgvs.Variant{
			Type:  "g",
			Start: hgvs.Position{Value: start},
			End:   hgvs.Position{Value: end},
		},
	}
}

func TestGenerator_Variant(t *testing.T) {
	t.Run("variant in a sequenceable exon", func(t *testing.T) {
		norm := &fakeNormalizer{norm: variantNormalization("NM_000451.3", 3100, 3101)}
		g := testGenerator(nil, nil, norm)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return []Pair{testPair()}, nil
		}

		table, err := g.Variant(context.Background(), "NM_000451.3:c.100G>A")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(table.Rows[0].Primer, "SHOX-E02F;") {
			t.Errorf("forward row = %q", table.Rows[0].Primer)
		}
	})

	t.Run("no primer hint carries the variant position", func(t *testing.T) {
		norm := &fakeNormalizer{norm: variantNormalization("NM_000451.3", 3100, 3101)}
		g := testGenerator(nil, nil, norm)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return nil, nil
		}

		_, err := g.Variant(context.Background(), "NM_000451.3:c.100G>A")
		var notFound *NoPrimerFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("err = %v, want NoPrimerFoundError", err)
		}
		if notFound.Start != 3100 || notFound.End != 3101 {
			t.Errorf("err = %+v", notFound)
		}
	})

	t.Run("exon longer than the maximum insert", func(t *testing.T) {
		gene := plusGene()
		gene.ExonStarts = []int{1000, 3000, 5000}
		gene.ExonEnds = []int{1200, 4000, 5400}
		norm := &fakeNormalizer{norm: variantNormalization("NM_000451.3", 3100, 3101)}
		g := testGenerator(&fakeAnnotator{gene: gene}, nil, norm)

		_, err := g.Variant(context.Background(), "NM_000451.3:c.100G>A")
		var lengthErr *ExonLengthError
		if !errors.As(err, &lengthErr) {
			t.Fatalf("err = %v, want ExonLengthError", err)
		}
		if lengthErr.ExonLen != 1000 || lengthErr.MaxInsert != 800 {
			t.Errorf("err = %+v", lengthErr)
		}
	})

	t.Run("intronic variant falls back to a position query", func(t *testing.T) {
		norm := &fakeNormalizer{norm: variantNormalization("NM_000451.3", 2000, 2001)}
		g := testGenerator(nil, nil, norm)
		g.designFn = func(ctx context.Context, chromosome string, tg target) ([]Pair, error) {
			return []Pair{testPair()}, nil
		}

		table, err := g.Variant(context.Background(), "NM_000451.3:c.100+50G>A")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(table.Rows[0].Primer, "chrX-2000F;") {
			t.Errorf("forward row = %q", table.Rows[0].Primer)
		}
	})

	t.Run("chromosomal description is rejected", func(t *testing.T) {
		g := testGenerator(nil, nil, &fakeNormalizer{})

		_, err := g.Variant(context.Background(), "chrX:g.624300A>T")
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("err = %v, want InputError", err)
		}
	})

	t.Run("hgvs errors are translated", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			target any
		}{
			{
				"parse error",
				&hgvs.ParseError{Input: "NM_1:c.?", Msg: "unparseable"},
				new(*InputError),
			},
			{
				"deep intronic offset",
				&hgvs.IntronicOffsetError{Variant: "NM_1:c.100+9G>A", Offset: 9},
				new(*IntronicPositionError),
			},
			{
				"invalid input reported by the API",
				&hgvs.APIError{Msg: "syntax error", Codes: map[string]string{"EPARSE": "syntax error"}, InvalidInput: true},
				new(*InputError),
			},
			{
				"other API failure",
				&hgvs.APIError{Msg: "retrieval failed", Codes: map[string]string{"EINTERNAL": "unexpected failure"}},
				new(*MutalyzerError),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				g := testGenerator(nil, nil, &fakeNormalizer{err: tt.err})
				_, err := g.Variant(context.Background(), "NM_000451.3:c.100G>A")
				if !errors.As(err, tt.target) {
					t.Errorf("err = %v, want %T", err, tt.target)
				}
			})
		}
	})
}

func TestGenerator_filterUnique(t *testing.T) {
	pcr := &fakePCR{rejectFirst: 1}
	g := testGenerator(nil, pcr, nil)

	pairs := []Pair{testPair(), testPair(), testPair()}
	unique, err := g.filterUnique(context.Background(), pairs)
	if err != nil {
		t.Fatal(err)
	}
	if len(unique) != 2 {
		t.Errorf("got %d unique pairs, want 2", len(unique))
	}
}

func TestGenerator_maskedSequence(t *testing.T) {
	db := &fakeAnnotator{gene: plusGene(), snps: []int{1002, 1005}}
	g := testGenerator(db, nil, nil)

	seq, err := g.maskedSequence(context.Background(), "chrX", 1000, 1010)
	if err != nil {
		t.Fatal(err)
	}
	if seq != "AANAANAAAA" {
		t.Errorf("seq = %q", seq)
	}
}
