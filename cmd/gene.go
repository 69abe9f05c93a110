package cmd

import (
	"github.com/spf13/cobra"
)

// geneCmd designs primers for every exon of a transcript
var geneCmd = &cobra.Command{
	Use:   "gene [nm-number]",
	Short: "Design primers for every exon of a transcript",
	Long: `Design primers for every exon of a transcript, e.g.

  primertool gene NM_000451

Every exon is covered by at least one primer pair; the order table
concatenates all pairs in exon order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, done, err := generator(assemblyFlag)
		if err != nil {
			return err
		}
		defer done()

		table, err := gen.Gene(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeTable(table)
	},
}

func init() {
	rootCmd.AddCommand(geneCmd)
}
