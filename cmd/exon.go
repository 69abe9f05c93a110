package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

// exonCmd designs primers covering one exon of a transcript
var exonCmd = &cobra.Command{
	Use:   "exon [nm-number] [exon-number]",
	Short: "Design primers covering one exon of a transcript",
	Long: `Design primers covering one exon of a transcript, e.g.

  primertool exon NM_000451 2

Exons are numbered in transcript order, starting at 1. Exons longer
than the maximum insert size are split over several primer pairs.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exonNumber, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}

		gen, done, err := generator(assemblyFlag)
		if err != nil {
			return err
		}
		defer done()

		table, err := gen.Exon(cmd.Context(), args[0], exonNumber)
		if err != nil {
			return err
		}
		return writeTable(table)
	},
}

func init() {
	rootCmd.AddCommand(exonCmd)
}
