// Package cmd is for command line interactions with the primertool
// application
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/IHGGM-Aachen/primertool/config"
	"github.com/IHGGM-Aachen/primertool/internal/hgvs"
	"github.com/IHGGM-Aachen/primertool/internal/primertool"
	"github.com/IHGGM-Aachen/primertool/internal/ucsc"
)

var (
	// stderr is for logging to Stderr (without an annoying timestamp)
	stderr = log.New(os.Stderr, "", 0)

	// persistent flags
	assemblyFlag string
	initialsFlag string
	outFlag      string
	formatFlag   string
	cfgFile      string
	verbose      bool

	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "primertool",
	Short: `Design PCR/Sanger sequencing primers for a variant, exon,
gene or genomic position against hg19/hg38`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConf := zap.NewProductionConfig()
		zapConf.OutputPaths = []string{"stderr"}
		if verbose {
			zapConf.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}

		var err error
		if logger, err = zapConf.Build(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			viper.SetConfigName("primertool")
			viper.SetConfigType("yaml")
			viper.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				viper.AddConfigPath(filepath.Join(home, ".primertool"))
			}
			// a config file is optional, defaults cover everything
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return fmt.Errorf("failed to read config file: %w", err)
				}
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		stderr.Fatalf("%v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&assemblyFlag, "assembly", "a", "hg38", "genome assembly (hg19 or hg38)")
	rootCmd.PersistentFlags().StringVarP(&initialsFlag, "initials", "n", "", "operator initials for the order table")
	rootCmd.PersistentFlags().StringVarP(&outFlag, "out", "o", "", "output file name (default stdout)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "tsv", "output format (tsv or json)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a primertool.yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

// generator wires a Generator against one assembly from the config.
// The returned func releases the database pool.
func generator(assemblyName string) (*primertool.Generator, func(), error) {
	conf, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	assembly, err := primertool.ParseAssembly(assemblyName)
	if err != nil {
		return nil, nil, err
	}

	db, err := ucsc.Open(conf.Database, assembly, logger)
	if err != nil {
		return nil, nil, err
	}

	var seq primertool.SequenceSource
	if conf.Genome.FastaDir != "" {
		fastaPath := filepath.Join(conf.Genome.FastaDir, string(assembly)+".fa")
		if seq, err = ucsc.OpenFasta(fastaPath); err != nil {
			db.Close()
			return nil, nil, err
		}
	} else {
		seq = ucsc.NewRESTSequence(conf.Genome.SequenceURL, assembly)
	}

	gen := primertool.NewGenerator(
		assembly,
		initialsFlag,
		conf,
		db,
		seq,
		ucsc.NewPCR(conf.PCR, assembly, logger),
		hgvs.NewMutalyzer(conf.Mutalyzer.URL, logger),
		logger,
	)

	return gen, func() { db.Close() }, nil
}

// writeTable writes an order table to --out (or stdout) in --format
func writeTable(table *primertool.OrderTable) error {
	var w io.Writer = os.Stdout
	if outFlag != "" {
		f, err := os.Create(outFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch formatFlag {
	case "json":
		return table.WriteJSON(w)
	case "tsv":
		return table.WriteTSV(w)
	default:
		return fmt.Errorf("unknown output format %q, use tsv or json", formatFlag)
	}
}
