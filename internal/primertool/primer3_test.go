package primertool

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/IHGGM-Aachen/primertool/config"
)

func testPrimer3Config() config.Primer3Config {
	return config.Primer3Config{
		Path:      "primer3_core",
		OptSize:   20,
		MinSize:   20,
		MaxSize:   22,
		OptTM:     60.0,
		MinTM:     58.0,
		MaxTM:     62.0,
		MaxPolyX:  5,
		GCClamp:   1,
		NumReturn: 5,
	}
}

func Test_primer3_input(t *testing.T) {
	p, err := newPrimer3("chrX:9900-10500", "acgtACGT", newTarget(10000, 10400, 100), testPrimer3Config())
	if err != nil {
		t.Fatal(err)
	}
	defer p.close()

	if err := p.input(); err != nil {
		t.Fatal(err)
	}
	fileBytes, err := os.ReadFile(p.in.Name())
	if err != nil {
		t.Fatal(err)
	}
	file := string(fileBytes)

	for _, want := range []string{
		"SEQUENCE_ID=chrX:9900-10500\n",
		"SEQUENCE_TEMPLATE=ACGTACGT\n",
		"SEQUENCE_TARGET=100,400\n",
		"PRIMER_PRODUCT_SIZE_RANGE=400-450\n",
		"PRIMER_OPT_SIZE=20\n",
		"PRIMER_MIN_SIZE=20\n",
		"PRIMER_MAX_SIZE=22\n",
		"PRIMER_OPT_TM=60.0\n",
		"PRIMER_MIN_TM=58.0\n",
		"PRIMER_MAX_TM=62.0\n",
		"PRIMER_MAX_POLY_X=5\n",
		"PRIMER_GC_CLAMP=1\n",
		"PRIMER_NUM_RETURN=5\n",
	} {
		if !strings.Contains(file, want) {
			t.Errorf("input file is missing %q:\n%s", want, file)
		}
	}
	if !strings.HasSuffix(file, "=") {
		t.Error("input file does not end with the Boulder-IO terminator")
	}
}

func Test_parseBoulder(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    []Pair
		wantErr bool
	}{
		{
			"one pair",
			`SEQUENCE_ID=test
PRIMER_PAIR_NUM_RETURNED=1
PRIMER_PAIR_0_PENALTY=0.52
PRIMER_PAIR_0_PRODUCT_SIZE=423
PRIMER_LEFT_0_SEQUENCE=GACTGGTCACTTACGGGTCA
PRIMER_LEFT_0=38,20
PRIMER_LEFT_0_TM=59.67
PRIMER_LEFT_0_GC_PERCENT=55.00
PRIMER_LEFT_0_PENALTY=0.33
PRIMER_RIGHT_0_SEQUENCE=TGCCAGTTGAGGAGAGTTGT
PRIMER_RIGHT_0=460,20
PRIMER_RIGHT_0_TM=59.82
PRIMER_RIGHT_0_GC_PERCENT=50.00
PRIMER_RIGHT_0_PENALTY=0.19
=`,
			[]Pair{
				{
					Left:        Primer{Seq: "GACTGGTCACTTACGGGTCA", Tm: 59.67, GC: 55.00, Penalty: 0.33, Start: 38},
					Right:       Primer{Seq: "TGCCAGTTGAGGAGAGTTGT", Tm: 59.82, GC: 50.00, Penalty: 0.19, Start: 441},
					ProductSize: 423,
					Penalty:     0.52,
				},
			},
			false,
		},
		{
			"zero pairs returned",
			"PRIMER_PAIR_NUM_RETURNED=0\n=",
			[]Pair{},
			false,
		},
		{
			"primer3 error",
			"PRIMER_ERROR=SEQUENCE_TARGET beyond end of sequence\n=",
			nil,
			true,
		},
		{
			"primer3 warning",
			"PRIMER_WARNING=Unrecognized tag\nPRIMER_PAIR_NUM_RETURNED=1\n=",
			nil,
			true,
		},
		{
			"missing pair count",
			"SEQUENCE_ID=test\n=",
			nil,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBoulder(tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBoulder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseBoulder() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPair_Tm(t *testing.T) {
	pair := Pair{
		Left:  Primer{Tm: 59.67},
		Right: Primer{Tm: 59.82},
	}
	if got := pair.Tm(); got != 60.0 {
		t.Errorf("Tm() = %v, want 60", got)
	}

	pair = Pair{Left: Primer{Tm: 58.1}, Right: Primer{Tm: 58.7}}
	if got := pair.Tm(); got != 58.0 {
		t.Errorf("Tm() = %v, want 58", got)
	}
}
