// Package ucsc talks to the UCSC genome browser's public services: the
// MySQL annotation database (refGene, snp150Common), the REST sequence
// API and the In-Silico PCR CGI.
package ucsc

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/IHGGM-Aachen/primertool/config"
	"github.com/IHGGM-Aachen/primertool/internal/primertool"
)

// DB is a read-only connection to one assembly's annotation database.
// The database name on the UCSC servers equals the assembly name.
type DB struct {
	conn *sql.DB
	log  *zap.Logger
}

// Open opens a connection pool against the annotation database of the
// given assembly. The pool connects lazily; Open itself does not hit
// the network.
func Open(cfg config.DatabaseConfig, assembly primertool.Assembly, log *zap.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?timeout=10s&readTimeout=30s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, assembly,
	)

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation database %s: %w", assembly, err)
	}

	// the public UCSC server drops idle connections aggressively
	conn.SetConnMaxLifetime(3 * time.Minute)
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)

	return &DB{conn: conn, log: log}, nil
}

// Close closes the connection pool
func (db *DB) Close() error { return db.conn.Close() }

// geneRow is one raw refGene row. Exon bounds come back as
// comma-separated longblobs.
type geneRow struct {
	chrom      string
	strand     string
	name2      string
	exonCount  int
	cdsStart   int
	cdsEnd     int
	exonStarts []byte
	exonEnds   []byte
}

// Gene fetches the refGene row for a transcript accession (NM number
// without version).
func (db *DB) Gene(ctx context.Context, nmNumber string) (*primertool.Gene, error) {
	db.log.Info("collecting gene information from the RefSeq table", zap.String("nm", nmNumber))

	rows, err := db.conn.QueryContext(
		ctx,
		`SELECT chrom, strand, name2, exonCount, cdsStart, cdsEnd, exonStarts, exonEnds
		 FROM refGene WHERE name = ?`,
		nmNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("refGene query failed: %w", err)
	}
	defer rows.Close()

	var matches []geneRow
	for rows.Next() {
		var r geneRow
		if err := rows.Scan(&r.chrom, &r.strand, &r.name2, &r.exonCount, &r.cdsStart, &r.cdsEnd, &r.exonStarts, &r.exonEnds); err != nil {
			return nil, fmt.Errorf("failed to scan refGene row: %w", err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("refGene query failed: %w", err)
	}

	if len(matches) == 0 {
		return nil, primertool.ErrGeneNotFound
	}

	row := pickPrimary(matches)

	exonStarts, err := splitCoords(row.exonStarts)
	if err != nil {
		return nil, fmt.Errorf("bad exonStarts for %s: %w", nmNumber, err)
	}
	exonEnds, err := splitCoords(row.exonEnds)
	if err != nil {
		return nil, fmt.Errorf("bad exonEnds for %s: %w", nmNumber, err)
	}

	return &primertool.Gene{
		NMNumber:   nmNumber,
		Chromosome: row.chrom,
		Strand:     row.strand,
		Name:       row.name2,
		ExonCount:  row.exonCount,
		CDSStart:   row.cdsStart,
		CDSEnd:     row.cdsEnd,
		ExonStarts: exonStarts,
		ExonEnds:   exonEnds,
	}, nil
}

// CommonSNPs returns the chromStart positions of common single
// nucleotide polymorphisms whose chromEnd falls into [start, end].
func (db *DB) CommonSNPs(ctx context.Context, chromosome string, start, end int) ([]int, error) {
	rows, err := db.conn.QueryContext(
		ctx,
		`SELECT chromStart FROM snp150Common
		 WHERE chrom = ? AND class = 'single' AND chromEnd BETWEEN ? AND ?`,
		chromosome, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("snp150Common query failed: %w", err)
	}
	defer rows.Close()

	var snps []int
	for rows.Next() {
		var chromStart int
		if err := rows.Scan(&chromStart); err != nil {
			return nil, fmt.Errorf("failed to scan snp150Common row: %w", err)
		}
		snps = append(snps, chromStart)
	}
	return snps, rows.Err()
}

// pickPrimary prefers a match on a primary chromosome over alt/fix
// contigs. Transcripts in the pseudoautosomal region match both chrX
// and chrY plus their alt contigs; alt contig names are long
// (chr19_KI270882v1_alt), primary ones are at most 5 characters.
func pickPrimary(rows []geneRow) geneRow {
	for _, row := range rows {
		if len(row.chrom) < 6 {
			return row
		}
	}
	return rows[0]
}

// splitCoords parses a comma-separated coordinate blob, e.g.
// "624343,630465,634617," (trailing comma included, as stored by UCSC)
func splitCoords(blob []byte) ([]int, error) {
	fields := strings.Split(strings.TrimSuffix(string(blob), ","), ",")
	coords := make([]int, 0, len(fields))
	for _, field := range fields {
		if field == "" {
			continue
		}
		coord, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", field)
		}
		coords = append(coords, coord)
	}
	return coords, nil
}
