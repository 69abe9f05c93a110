package ucsc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/IHGGM-Aachen/primertool/internal/primertool"
)

// RESTSequence fetches genomic sequence windows from the UCSC REST API
// (api.genome.ucsc.edu). Windows are a few hundred bp, so one request
// per design attempt is cheap.
type RESTSequence struct {
	baseURL  string
	assembly primertool.Assembly
	client   *http.Client
}

// NewRESTSequence returns a sequence source backed by the UCSC REST API
func NewRESTSequence(baseURL string, assembly primertool.Assembly) *RESTSequence {
	return &RESTSequence{
		baseURL:  baseURL,
		assembly: assembly,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Sequence fetches [start, end) of a chromosome, upper-cased
func (s *RESTSequence) Sequence(ctx context.Context, chromosome string, start, end int) (string, error) {
	endpoint := fmt.Sprintf(
		"%s/getData/sequence?genome=%s;chrom=%s;start=%d;end=%d",
		s.baseURL, s.assembly, chromosome, start, end,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sequence request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sequence request for %s:%d-%d returned status %d", chromosome, start, end, resp.StatusCode)
	}

	var body struct {
		DNA   string `json:"dna"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode sequence response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("sequence request for %s:%d-%d failed: %s", chromosome, start, end, body.Error)
	}
	if len(body.DNA) != end-start {
		return "", fmt.Errorf("sequence response for %s:%d-%d has length %d", chromosome, start, end, len(body.DNA))
	}

	return strings.ToUpper(body.DNA), nil
}

// faidxRecord is one line of a samtools .fai index
type faidxRecord struct {
	length    int64
	offset    int64
	lineBases int64
	lineWidth int64
}

// FastaSequence fetches sequence windows from a local faidx-indexed
// FASTA file, for installations mirroring the genome offline.
type FastaSequence struct {
	path  string
	index map[string]faidxRecord
}

// OpenFasta opens a FASTA file with its .fai index beside it
func OpenFasta(path string) (*FastaSequence, error) {
	indexFile, err := os.Open(path + ".fai")
	if err != nil {
		return nil, fmt.Errorf("failed to open faidx index: %w", err)
	}
	defer indexFile.Close()

	index := make(map[string]faidxRecord)
	scanner := bufio.NewScanner(indexFile)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 5 {
			continue
		}

		var rec faidxRecord
		var parseErr error
		parse := func(s string) int64 {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				parseErr = err
			}
			return v
		}
		rec.length = parse(fields[1])
		rec.offset = parse(fields[2])
		rec.lineBases = parse(fields[3])
		rec.lineWidth = parse(fields[4])
		if parseErr != nil {
			return nil, fmt.Errorf("bad faidx line for %s: %w", fields[0], parseErr)
		}

		index[fields[0]] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read faidx index: %w", err)
	}

	return &FastaSequence{path: path, index: index}, nil
}

// Sequence fetches [start, end) of a chromosome, upper-cased
func (f *FastaSequence) Sequence(ctx context.Context, chromosome string, start, end int) (string, error) {
	rec, ok := f.index[chromosome]
	if !ok {
		return "", fmt.Errorf("chromosome %s not in FASTA index", chromosome)
	}
	if start < 0 || int64(end) > rec.length {
		return "", fmt.Errorf("window %d-%d is outside %s (length %d)", start, end, chromosome, rec.length)
	}

	file, err := os.Open(f.path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	// seek to the line holding start, then strip newlines as we read
	fileOffset := rec.offset + int64(start)/rec.lineBases*rec.lineWidth + int64(start)%rec.lineBases
	if _, err := file.Seek(fileOffset, io.SeekStart); err != nil {
		return "", err
	}

	want := end - start
	seq := make([]byte, 0, want)
	reader := bufio.NewReader(file)
	for len(seq) < want {
		b, err := reader.ReadByte()
		if err != nil {
			return "", fmt.Errorf("truncated FASTA for %s:%d-%d: %w", chromosome, start, end, err)
		}
		if b == '\n' || b == '\r' {
			continue
		}
		seq = append(seq, b)
	}

	return strings.ToUpper(string(seq)), nil
}
