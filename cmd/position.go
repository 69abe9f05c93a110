package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

// positionCmd designs primers covering a raw genomic interval
var positionCmd = &cobra.Command{
	Use:   "position [chromosome] [start] [end]",
	Short: "Design primers covering a genomic interval",
	Long: `Design primers covering a genomic interval, e.g.

  primertool position chrX 624300 624700

Tolerant chromosome spellings ("X", "Chr19") are accepted. Intervals
longer than the maximum insert size are split over several primer
pairs.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		end, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}

		gen, done, err := generator(assemblyFlag)
		if err != nil {
			return err
		}
		defer done()

		table, err := gen.Position(cmd.Context(), args[0], start, end)
		if err != nil {
			return err
		}
		return writeTable(table)
	},
}

func init() {
	rootCmd.AddCommand(positionCmd)
}
