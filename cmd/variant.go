package cmd

import (
	"github.com/spf13/cobra"
)

// variantCmd designs primers around an HGVS coding variant
var variantCmd = &cobra.Command{
	Use:   "variant [description]",
	Short: "Design primers covering an HGVS variant",
	Long: `Design primers covering an HGVS coding variant, e.g.

  primertool variant NM_000451.3:c.1702G>A

The description is validated with the Mutalyzer name checker and mapped
to its genomic position. Variants inside an exon get primers for the
whole exon; intronic and intergenic variants get primers around the
variant position itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, done, err := generator(assemblyFlag)
		if err != nil {
			return err
		}
		defer done()

		table, err := gen.Variant(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeTable(table)
	},
}

func init() {
	rootCmd.AddCommand(variantCmd)
}
