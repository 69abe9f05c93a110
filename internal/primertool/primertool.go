// Package primertool designs PCR/Sanger sequencing primers for a
// genomic region given as an HGVS variant, an exon, a whole transcript
// or a raw genomic interval.
package primertool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IHGGM-Aachen/primertool/config"
	"github.com/IHGGM-Aachen/primertool/internal/hgvs"
)

// ErrGeneNotFound is returned by an Annotator when no refGene row
// matches the requested transcript.
var ErrGeneNotFound = errors.New("no matching refGene row")

// Annotator looks up genome annotation: transcripts and common SNPs
type Annotator interface {
	// Gene fetches the refGene row for an NM number (without version)
	Gene(ctx context.Context, nmNumber string) (*Gene, error)

	// CommonSNPs returns the chromStart positions of common single
	// nucleotide SNPs inside [start, end)
	CommonSNPs(ctx context.Context, chromosome string, start, end int) ([]int, error)
}

// SequenceSource fetches genomic sequence windows
type SequenceSource interface {
	Sequence(ctx context.Context, chromosome string, start, end int) (string, error)
}

// UniquenessChecker decides whether a primer pair amplifies exactly one
// site in the genome
type UniquenessChecker interface {
	UniquelyBinding(ctx context.Context, forward, reverse string) (bool, error)
}

// Normalizer validates an HGVS description and maps it onto the genome
type Normalizer interface {
	Normalize(ctx context.Context, variant string) (*hgvs.Normalization, error)
}

// geneExonParallelism bounds how many exons of one gene are designed
// concurrently. primer3 runs and the uniqueness checks dominate, so a
// small bound keeps the external services happy.
const geneExonParallelism = 4

// searchStep is the bp increment for both the primer flank and the
// window widening in the design loop
const searchStep = 100

// Generator designs primers against one genome assembly
type Generator struct {
	assembly Assembly

	// operator initials stamped on order tables
	initials string

	design config.DesignConfig
	p3conf config.Primer3Config

	db   Annotator
	seq  SequenceSource
	pcr  UniquenessChecker
	norm Normalizer

	log *zap.Logger

	// designFn runs one primer3 attempt; replaced in tests
	designFn func(ctx context.Context, chromosome string, t target) ([]Pair, error)
}

// NewGenerator wires a Generator from its collaborators
func NewGenerator(
	assembly Assembly,
	initials string,
	conf *config.Config,
	db Annotator,
	seq SequenceSource,
	pcr UniquenessChecker,
	norm Normalizer,
	log *zap.Logger,
) *Generator {
	g := &Generator{
		assembly: assembly,
		initials: strings.ReplaceAll(initials, " ", ""),
		design:   conf.Design,
		p3conf:   conf.Primer3,
		db:       db,
		seq:      seq,
		pcr:      pcr,
		norm:     norm,
		log:      log,
	}
	g.designFn = g.runPrimer3
	return g
}

// Assembly is the genome build this generator designs against
func (g *Generator) Assembly() Assembly { return g.assembly }

// Exon designs primers covering one exon of a transcript
func (g *Generator) Exon(ctx context.Context, nmNumber string, exonNumber int) (*OrderTable, error) {
	gene, err := g.geneInfo(ctx, nmNumber)
	if err != nil {
		return nil, err
	}
	return g.exonTable(ctx, gene, exonNumber, nil)
}

// Gene designs primers for every exon of a transcript. Exons are
// designed concurrently; the table keeps exon order.
func (g *Generator) Gene(ctx context.Context, nmNumber string) (*OrderTable, error) {
	gene, err := g.geneInfo(ctx, nmNumber)
	if err != nil {
		return nil, err
	}

	g.log.Info("designing primers for all exons",
		zap.String("gene", gene.Name),
		zap.Int("exons", gene.ExonCount),
	)

	tables := make([]*OrderTable, gene.ExonCount)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(geneExonParallelism)
	for exon := 1; exon <= gene.ExonCount; exon++ {
		exon := exon
		eg.Go(func() error {
			table, err := g.exonTable(ctx, gene, exon, nil)
			if err != nil {
				return err
			}
			tables[exon-1] = table
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	combined := &OrderTable{}
	for _, table := range tables {
		combined.Append(table)
	}
	return combined, nil
}

// Position designs primers covering a raw genomic interval
func (g *Generator) Position(ctx context.Context, chromosome string, start, end int) (*OrderTable, error) {
	region, err := NewRegion(chromosome, start, end)
	if err != nil {
		return nil, err
	}

	windows := splitWindows(region.Start, region.End, g.design.MinInsert, g.design.MaxInsert, g.design.ExonBorderPad)
	pairs, err := g.search(ctx, region.Chromosome, windows)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, &NoPrimerFoundError{Chromosome: region.Chromosome, Start: region.Start, End: region.End}
	}

	table := &OrderTable{}
	for _, pair := range pairs {
		table.Rows = append(table.Rows, positionRows(region.Chromosome, region.Start, region.End, pair, g.initials)...)
	}
	return table, nil
}

// Variant designs primers covering an HGVS coding variant. Variants
// inside a sequenceable exon get primers for the whole exon; everything
// else falls back to the genomic interval of the variant itself.
func (g *Generator) Variant(ctx context.Context, description string) (*OrderTable, error) {
	description = strings.ReplaceAll(description, " ", "")

	if strings.HasPrefix(strings.ToLower(description), "chr") {
		return nil, inputErrorf("only NM descriptions are supported for variant queries, use a position query for %q", description)
	}
	if !strings.HasPrefix(description, "NM_") {
		return nil, inputErrorf(`given variant %q is invalid, variants start with "NM_"`, description)
	}

	g.log.Info("normalizing variant", zap.String("variant", description))
	norm, err := g.norm.Normalize(ctx, description)
	if err != nil {
		return nil, translateHGVSError(err)
	}

	nmNumber, _ := hgvs.SplitAccession(norm.CodingAccession)
	gene, err := g.geneInfo(ctx, nmNumber)
	if err != nil {
		return nil, err
	}

	locus := gene.Locate(norm.Genomic.Start.Value, norm.Genomic.End.Value)

	switch {
	case locus.InExon && locus.ExonLen <= g.design.MaxInsert:
		g.log.Info("variant is in an exon, designing exon primers",
			zap.String("gene", gene.Name),
			zap.Int("exon", locus.ExonNumber),
		)
		return g.exonTable(ctx, gene, locus.ExonNumber, &locus)

	case locus.InExon:
		return nil, &ExonLengthError{
			Chromosome: gene.Chromosome,
			Start:      locus.Start,
			End:        locus.End,
			ExonLen:    locus.ExonLen,
			MaxInsert:  g.design.MaxInsert,
		}

	default:
		g.log.Info("variant is not in an exon, designing position primers",
			zap.String("chromosome", gene.Chromosome),
			zap.Int("start", locus.Start),
			zap.Int("end", locus.End),
		)
		return g.Position(ctx, gene.Chromosome, locus.Start, locus.End)
	}
}

// geneInfo validates the NM number and fetches its refGene row
func (g *Generator) geneInfo(ctx context.Context, nmNumber string) (*Gene, error) {
	nmNumber = strings.ReplaceAll(nmNumber, " ", "")
	if err := CheckNMNumber(nmNumber); err != nil {
		return nil, err
	}

	gene, err := g.db.Gene(ctx, nmNumber)
	if errors.Is(err, ErrGeneNotFound) {
		return nil, inputErrorf("could not find gene information for %s in the RefSeq database", nmNumber)
	}
	if err != nil {
		return nil, &GenomeError{Msg: fmt.Sprintf("refGene lookup for %s failed", nmNumber), Err: err}
	}
	return gene, nil
}

// exonTable designs primers for one exon and renders its order rows.
// locus, when present, carries the variant position used in the
// no-primer fallback hint.
func (g *Generator) exonTable(ctx context.Context, gene *Gene, exonNumber int, locus *Locus) (*OrderTable, error) {
	start, end, err := gene.ExonBounds(exonNumber)
	if err != nil {
		return nil, err
	}

	windows := splitWindows(start, end, g.design.MinInsert, g.design.MaxInsert, g.design.ExonBorderPad)
	pairs, err := g.search(ctx, gene.Chromosome, windows)
	if err != nil {
		return nil, err
	}

	if len(pairs) == 0 {
		notFound := &NoPrimerFoundError{
			Gene:       gene.Name,
			ExonNumber: exonNumber,
			Chromosome: gene.Chromosome,
			Start:      start,
			End:        end,
		}
		if locus != nil {
			notFound.Start, notFound.End = locus.Start, locus.End
		}
		return nil, notFound
	}

	table := &OrderTable{}
	for _, pair := range pairs {
		table.Rows = append(table.Rows, exonRows(gene, exonNumber, pair, g.initials)...)
	}
	return table, nil
}

// search runs the design loop over every window and returns the
// accepted pair of each window that produced one. Windows that exhaust
// the size budget without a unique pair are dropped.
func (g *Generator) search(ctx context.Context, chromosome string, windows []window) ([]Pair, error) {
	var found []Pair
	for _, w := range windows {
		pair, ok, err := g.searchWindow(ctx, chromosome, w)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, pair)
		}
	}

	g.log.Info("design loop finished",
		zap.String("chromosome", chromosome),
		zap.Int("windows", len(windows)),
		zap.Int("pairs", len(found)),
	)
	return found, nil
}

// searchWindow looks for one uniquely binding pair inside a window.
//
// The flank primer3 may place primers in starts at searchStep bp and
// grows by searchStep every time primer3 comes back empty. When primer3
// returns pairs but the uniqueness check rejects them all, the window
// itself is widened by searchStep on both sides and the flank starts
// over. The search stops, without a pair, once the requested product
// size range would exceed the maximum insert.
func (g *Generator) searchWindow(ctx context.Context, chromosome string, w window) (Pair, bool, error) {
	start, end := w.start, w.end
	flank := searchStep

	for {
		t := newTarget(start, end, flank)
		if t.sizeMax > g.design.MaxInsert {
			g.log.Warn("stopping search, product size range exceeds the max insert",
				zap.String("chromosome", chromosome),
				zap.Int("start", start),
				zap.Int("end", end),
			)
			return Pair{}, false, nil
		}

		pairs, err := g.designFn(ctx, chromosome, t)
		if err != nil {
			return Pair{}, false, err
		}

		unique, err := g.filterUnique(ctx, pairs)
		if err != nil {
			return Pair{}, false, err
		}

		if len(unique) > 0 {
			g.log.Debug("primers found",
				zap.String("chromosome", chromosome),
				zap.Int("start", start),
				zap.Int("end", end),
			)
			return unique[0], true, nil
		}

		if len(pairs) > 0 {
			// every returned pair binds more than one site: the window
			// is sitting in repetitive sequence, so widen the target
			// and start the flank over
			g.log.Info("all pairs bind multiple sites, widening the target",
				zap.String("chromosome", chromosome),
				zap.Int("start", start),
				zap.Int("end", end),
			)
			start -= searchStep
			if start < 0 {
				start = 0
			}
			end += searchStep
			flank = searchStep
			continue
		}

		flank += searchStep
		g.log.Debug("no primers yet, growing the flank",
			zap.Int("flank", flank),
		)
	}
}

// filterUnique drops pairs that do not bind uniquely in the genome
func (g *Generator) filterUnique(ctx context.Context, pairs []Pair) ([]Pair, error) {
	unique := make([]Pair, 0, len(pairs))
	for _, pair := range pairs {
		ok, err := g.pcr.UniquelyBinding(ctx, pair.Left.Seq, pair.Right.Seq)
		if err != nil {
			return nil, &GenomeError{Msg: "in-silico PCR check failed", Err: err}
		}
		if ok {
			unique = append(unique, pair)
		} else {
			g.log.Info("purging primer pair with multiple binding sites",
				zap.String("forward", pair.Left.Seq),
				zap.String("reverse", pair.Right.Seq),
			)
		}
	}
	return unique, nil
}

// runPrimer3 is the production designFn: fetch the masked sequence
// window and run primer3 over it
func (g *Generator) runPrimer3(ctx context.Context, chromosome string, t target) ([]Pair, error) {
	seq, err := g.maskedSequence(ctx, chromosome, t.seqStart, t.seqEnd)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("%s_%d_%d", chromosome, t.seqStart, t.seqEnd)
	p3, err := newPrimer3(id, seq, t, g.p3conf)
	if err != nil {
		return nil, err
	}
	defer p3.close()

	if err := p3.input(); err != nil {
		return nil, err
	}
	if err := p3.run(ctx); err != nil {
		return nil, err
	}
	return p3.parse()
}

// maskedSequence fetches a sequence window with common SNPs masked
func (g *Generator) maskedSequence(ctx context.Context, chromosome string, start, end int) (string, error) {
	seq, err := g.seq.Sequence(ctx, chromosome, start, end)
	if err != nil {
		return "", &GenomeError{
			Msg: fmt.Sprintf("failed to fetch %s:%d-%d", chromosome, start, end),
			Err: err,
		}
	}

	snps, err := g.db.CommonSNPs(ctx, chromosome, start, end)
	if err != nil {
		return "", &GenomeError{
			Msg: fmt.Sprintf("snp150Common lookup for %s:%d-%d failed", chromosome, start, end),
			Err: err,
		}
	}

	return maskSNPs(seq, start, snps), nil
}

// translateHGVSError maps the hgvs package's error types onto the
// user-facing taxonomy
func translateHGVSError(err error) error {
	var parseErr *hgvs.ParseError
	if errors.As(err, &parseErr) {
		return &InputError{Msg: parseErr.Error()}
	}

	var intronicErr *hgvs.IntronicOffsetError
	if errors.As(err, &intronicErr) {
		return &IntronicPositionError{Variant: intronicErr.Variant, Offset: intronicErr.Offset}
	}

	var apiErr *hgvs.APIError
	if errors.As(err, &apiErr) {
		if apiErr.InvalidInput {
			return &InputError{Msg: apiErr.Error()}
		}
		return &MutalyzerError{Msg: apiErr.Msg, Codes: apiErr.Codes}
	}

	return err
}
