package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"example.com/carbon/internal/emissions"
)

// factorFile is the on-disk shape of FACTORS_FILE:
//
//	factors:
//	  - activity: electricity
//	    kg_per_unit: 0.277
type factorFile struct {
	Factors []emissions.Factor `yaml:"factors"`
}

// LoadFactorTable reads the factor table from path. An empty path returns the
// built-in table.
func LoadFactorTable(path string) (*emissions.FactorTable, error) {
	if path == "" {
		return emissions.DefaultFactors(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factors file: %w", err)
	}

	var file factorFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse factors file %s: %w", path, err)
	}

	table, err := emissions.NewFactorTable(file.Factors)
	if err != nil {
		return nil, fmt.Errorf("factors file %s: %w", path, err)
	}
	return table, nil
}
