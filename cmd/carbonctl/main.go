package main

import (
	"fmt"
	"os"

	"example.com/carbon/internal/cli"
	"example.com/carbon/internal/config"
)

var version = "dev"

func main() {
	cfg := config.Load()

	table, err := config.LoadFactorTable(cfg.FactorsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := cli.NewRootCmd(version, table, cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
