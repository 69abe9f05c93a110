package ucsc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/IHGGM-Aachen/primertool/config"
	"github.com/IHGGM-Aachen/primertool/internal/primertool"
)

// PCR is a client for the UCSC In-Silico PCR CGI (hgPcr). It amplifies
// a primer pair against the whole genome and reports every product, so
// it doubles as a uniqueness check during primer design.
type PCR struct {
	baseURL  string
	assembly primertool.Assembly
	conf     config.PCRConfig
	client   *http.Client
	log      *zap.Logger
}

// NewPCR returns an In-Silico PCR client for one assembly
func NewPCR(cfg config.PCRConfig, assembly primertool.Assembly, log *zap.Logger) *PCR {
	return &PCR{
		baseURL:  cfg.URL,
		assembly: assembly,
		conf:     cfg,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      log,
	}
}

// product is one amplicon reported by hgPcr
type product struct {
	// chromosome after collapsing alt/haplotype names, e.g. chr19
	chromosome string

	// amplified sequence
	seq string
}

// UniquelyBinding amplifies the pair in silico and reports whether
// exactly one genomic site produces a product. The same amplicon on a
// chromosome and its alt contig counts once.
func (p *PCR) UniquelyBinding(ctx context.Context, forward, reverse string) (bool, error) {
	query := url.Values{}
	query.Set("org", "Human")
	query.Set("db", string(p.assembly))
	query.Set("wp_target", "genome")
	query.Set("wp_f", forward)
	query.Set("wp_r", reverse)
	query.Set("Submit", "submit")
	query.Set("wp_size", strconv.Itoa(p.conf.MaxProductSize))
	query.Set("wp_perfect", strconv.Itoa(p.conf.MinPerfectMatch))
	query.Set("wp_good", strconv.Itoa(p.conf.MinGoodMatch))
	query.Set("boolshad.wp_flipReverse", "0")
	query.Set("boolshad.wp_append", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("in-silico PCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("in-silico PCR returned status %d", resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read in-silico PCR response: %w", err)
	}

	products := parseProducts(string(html))

	unique := make(map[product]bool)
	for _, prod := range products {
		unique[prod] = true
	}

	p.log.Debug("in-silico PCR finished",
		zap.String("forward", forward),
		zap.String("reverse", reverse),
		zap.Int("products", len(products)),
		zap.Int("sites", len(unique)),
	)
	return len(unique) == 1, nil
}

var anchorTagRe = regexp.MustCompile(`</?A[^>]*>`)

// altSuffixRe collapses alt contig and position decorations:
// "chr19_KI270882v1_alt" and "chr19:44905791+44906101" both become
// "chr19"
var altSuffixRe = regexp.MustCompile(`[_|:].*`)

// parseProducts extracts the FASTA formatted amplicons out of the hgPcr
// HTML reply. No <PRE> block means the pair produced no product.
func parseProducts(html string) []product {
	start := strings.Index(html, "<PRE>")
	end := strings.Index(html, "</PRE>")
	if start < 0 || end < 0 || end < start {
		return nil
	}

	fasta := anchorTagRe.ReplaceAllString(html[start+len("<PRE>"):end], "")

	var products []product
	var current *product
	for _, line := range strings.Split(fasta, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if current != nil {
				products = append(products, *current)
			}
			id := strings.Fields(line[1:])[0]
			current = &product{chromosome: altSuffixRe.ReplaceAllString(id, "")}
			continue
		}

		if current != nil {
			current.seq += strings.ToUpper(line)
		}
	}
	if current != nil {
		products = append(products, *current)
	}

	return products
}
