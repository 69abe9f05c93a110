// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig is the connection settings for the UCSC annotation
// database (refGene, snp150Common). The defaults point at the public
// UCSC MySQL server; a local mirror only needs host and password changed.
type DatabaseConfig struct {
	// mysql host, e.g. "genome-euro-mysql.soe.ucsc.edu" or "localhost"
	Host string `mapstructure:"host"`

	// mysql port
	Port int `mapstructure:"port"`

	// mysql user, "genome" on the public UCSC server
	User string `mapstructure:"user"`

	// mysql password, empty on the public UCSC server
	Password string `mapstructure:"password"`
}

// GenomeConfig is settings for genomic sequence retrieval
type GenomeConfig struct {
	// base URL of the UCSC REST API used to fetch sequence windows
	SequenceURL string `mapstructure:"sequence-url"`

	// directory with local faidx-indexed FASTA files, one per assembly
	// (e.g. hg38.fa + hg38.fa.fai). When set, it is preferred over the
	// REST API
	FastaDir string `mapstructure:"fasta-dir"`
}

// Primer3Config is settings passed through to the primer3_core executable
type Primer3Config struct {
	// path to the primer3_core executable
	Path string `mapstructure:"path"`

	// primer length bounds, bp
	OptSize int `mapstructure:"opt-size"`
	MinSize int `mapstructure:"min-size"`
	MaxSize int `mapstructure:"max-size"`

	// melting temperature bounds, degrees C
	OptTM float64 `mapstructure:"opt-tm"`
	MinTM float64 `mapstructure:"min-tm"`
	MaxTM float64 `mapstructure:"max-tm"`

	// the maximum mononucleotide repeat length
	MaxPolyX int `mapstructure:"max-poly-x"`

	// require this many G/C bases at the primer 3' end
	GCClamp int `mapstructure:"gc-clamp"`

	// number of primer pairs to request per design attempt
	NumReturn int `mapstructure:"num-return"`
}

// DesignConfig is settings for sizing the sequencing insert
type DesignConfig struct {
	// the smallest insert that can be Sanger sequenced in one read
	MinInsert int `mapstructure:"min-insert"`

	// the largest insert that can be Sanger sequenced in one read.
	// longer targets are split into several primer pairs
	MaxInsert int `mapstructure:"max-insert"`

	// bp kept between an exon border and the primer binding site
	ExonBorderPad int `mapstructure:"exon-border-pad"`
}

// MutalyzerConfig is settings for the Mutalyzer name checker API
type MutalyzerConfig struct {
	// base URL of the Mutalyzer API
	URL string `mapstructure:"url"`
}

// PCRConfig is settings for the UCSC In-Silico PCR uniqueness check
type PCRConfig struct {
	// base URL of the UCSC hgPcr CGI
	URL string `mapstructure:"url"`

	// largest amplicon reported by in-silico PCR, bp
	MaxProductSize int `mapstructure:"max-product-size"`

	// minimum 3'-end perfect match, bp
	MinPerfectMatch int `mapstructure:"min-perfect-match"`

	// minimum good (near-perfect) match, bp
	MinGoodMatch int `mapstructure:"min-good-match"`
}

// ServerConfig is settings for the HTTP API
type ServerConfig struct {
	// address to listen on, e.g. ":8501"
	Addr string `mapstructure:"addr"`

	// operator initials stamped on order tables created via the API
	// when the request does not carry its own
	Initials string `mapstructure:"initials"`
}

// Config is the root-level settings struct and is a mix of settings
// available in primertool.yaml, PRIMERTOOL_* env vars and those from
// the command line
type Config struct {
	// UCSC annotation database connection
	Database DatabaseConfig `mapstructure:"database"`

	// genomic sequence retrieval
	Genome GenomeConfig `mapstructure:"genome"`

	// primer3 settings
	Primer3 Primer3Config `mapstructure:"primer3"`

	// insert sizing
	Design DesignConfig `mapstructure:"design"`

	// Mutalyzer API
	Mutalyzer MutalyzerConfig `mapstructure:"mutalyzer"`

	// In-Silico PCR
	PCR PCRConfig `mapstructure:"pcr"`

	// HTTP API
	Server ServerConfig `mapstructure:"server"`
}

// setDefaults registers every setting's default value with Viper.
// Flags and env vars override them.
func setDefaults() {
	viper.SetDefault("database.host", "genome-euro-mysql.soe.ucsc.edu")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.user", "genome")
	viper.SetDefault("database.password", "")

	viper.SetDefault("genome.sequence-url", "https://api.genome.ucsc.edu")
	viper.SetDefault("genome.fasta-dir", "")

	viper.SetDefault("primer3.path", "primer3_core")
	viper.SetDefault("primer3.opt-size", 20)
	viper.SetDefault("primer3.min-size", 20)
	viper.SetDefault("primer3.max-size", 22)
	viper.SetDefault("primer3.opt-tm", 60.0)
	viper.SetDefault("primer3.min-tm", 58.0)
	viper.SetDefault("primer3.max-tm", 62.0)
	viper.SetDefault("primer3.max-poly-x", 5)
	viper.SetDefault("primer3.gc-clamp", 1)
	viper.SetDefault("primer3.num-return", 5)

	viper.SetDefault("design.min-insert", 200)
	viper.SetDefault("design.max-insert", 800)
	viper.SetDefault("design.exon-border-pad", 40)

	viper.SetDefault("mutalyzer.url", "https://mutalyzer.nl/api")

	viper.SetDefault("pcr.url", "https://genome.ucsc.edu/cgi-bin/hgPcr")
	viper.SetDefault("pcr.max-product-size", 4000)
	viper.SetDefault("pcr.min-perfect-match", 15)
	viper.SetDefault("pcr.min-good-match", 15)

	viper.SetDefault("server.addr", ":8501")
	viper.SetDefault("server.initials", "")
}

// New returns a new Config struct populated by Viper settings (from
// primertool.yaml, the environment and/or command line arguments)
func New() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("primertool")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	return c, nil
}
