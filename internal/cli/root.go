// Package cli implements the carbonctl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"example.com/carbon/internal/config"
	"example.com/carbon/internal/emissions"
)

// NewRootCmd creates the root command. The factor table is resolved before the
// command tree is built because calculate derives one flag per activity from it.
func NewRootCmd(ver string, table *emissions.FactorTable, cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "carbonctl",
		Short:         "Carbon footprint calculator and service tooling",
		Long:          "carbonctl calculates daily CO2 emissions from activity quantities and mints development tokens for the carbon service.",
		Version:       ver,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Calculate a day's emissions
  carbonctl calculate --electricity 100 --petrol 10

  # Show the factor table
  carbonctl factors

  # Mint a token for local testing
  carbonctl token --subject user-1 --tenant acme`,
	}

	cmd.AddCommand(
		NewCalculateCmd(table, cfg.DailyLimitKg),
		NewFactorsCmd(table),
		NewTokenCmd(cfg),
	)
	return cmd
}
