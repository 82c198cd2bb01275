package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/carbon/internal/emissions"
	"example.com/carbon/internal/report"
)

// NewCalculateCmd creates the calculate command with one --<activity> flag per
// factor. Only flags given on the command line become activity quantities.
func NewCalculateCmd(table *emissions.FactorTable, limitKg float64) *cobra.Command {
	var output string
	quantities := make(map[string]*float64, table.Len())

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate a day's CO2 emissions",
		Long: `Calculates total and per-activity CO2 emissions in kg for the quantities
given as flags, then ranks activities and compares the total with the daily limit.`,
		Example: `  carbonctl calculate --electricity 100 --petrol 10
  carbonctl calculate --paper 2 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			q := emissions.Quantities{}
			for activity, value := range quantities {
				if cmd.Flags().Changed(activity) {
					q[activity] = *value
				}
			}

			res, err := emissions.NewCalculator(table).Calculate(q)
			if err != nil {
				return err
			}
			daily := report.Build(res, limitKg)

			if output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), daily)
			}
			return renderDaily(cmd.OutOrStdout(), daily)
		},
	}

	for _, factor := range table.Factors() {
		quantities[factor.Activity] = cmd.Flags().Float64(factor.Activity, 0,
			fmt.Sprintf("quantity of %s (%g kg CO2 per unit)", factor.Activity, factor.KgPerUnit))
	}
	cmd.Flags().StringVarP(&output, "output", "o", OutputText, "output format: text or json")
	cmd.Flags().Float64Var(&limitKg, "limit", limitKg, "daily limit in kg CO2")

	return cmd
}

func renderDaily(w io.Writer, daily report.Daily) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVITY\tKG CO2")
	for _, entry := range daily.Ranking {
		fmt.Fprintf(tw, "%s\t%.2f\n", entry.Activity, entry.Kg)
	}
	fmt.Fprintf(tw, "TOTAL\t%.2f\n", daily.Total)
	if err := tw.Flush(); err != nil {
		return err
	}

	advice := daily.Advice
	if advice.ExceedsLimit {
		fmt.Fprintf(w, "\nAbove the daily limit of %.2f kg by %.2f kg.\n", advice.LimitKg, advice.ExcessKg)
	} else {
		fmt.Fprintf(w, "\nWithin the daily limit of %.2f kg.\n", advice.LimitKg)
	}
	if len(advice.Focus) > 0 {
		fmt.Fprintf(w, "Biggest contributors: %v\n", advice.Focus)
	}
	for _, eq := range daily.Equivalents {
		fmt.Fprintf(w, "  ~ %.0f %s\n", eq.Value, eq.Label)
	}
	return nil
}
