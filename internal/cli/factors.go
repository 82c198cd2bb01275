package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/carbon/internal/emissions"
)

// NewFactorsCmd creates the factors command, which prints the factor table in
// canonical order.
func NewFactorsCmd(table *emissions.FactorTable) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Show the emission factor table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), table.Factors())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTIVITY\tKG CO2 PER UNIT")
			for _, f := range table.Factors() {
				fmt.Fprintf(tw, "%s\t%g\n", f.Activity, f.KgPerUnit)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", OutputText, "output format: text or json")
	return cmd
}
