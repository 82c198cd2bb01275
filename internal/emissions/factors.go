// Package emissions converts activity quantities into kg CO2 and aggregates
// per-user daily history.
package emissions

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Activity identifiers recognised by the default factor table.
const (
	ActivityElectricity  = "electricity"
	ActivityPetrol       = "petrol"
	ActivityDiesel       = "diesel"
	ActivityNaturalGas   = "natural_gas"
	ActivityOrganicWaste = "organic_waste"
	ActivityPaper        = "paper"
	ActivityPlastic      = "plastic"
)

// Factor is a single emission factor in kg CO2 per unit of activity.
type Factor struct {
	Activity  string  `json:"activity" yaml:"activity"`
	KgPerUnit float64 `json:"kg_per_unit" yaml:"kg_per_unit"`
}

// FactorTable is an immutable, ordered set of emission factors. The insertion
// order is the canonical order used for validation and summation.
type FactorTable struct {
	order   []string
	factors map[string]float64
}

// NewFactorTable validates the supplied factors and freezes them into a table.
func NewFactorTable(factors []Factor) (*FactorTable, error) {
	if len(factors) == 0 {
		return nil, errors.New("factor table must contain at least one activity")
	}

	t := &FactorTable{
		order:   make([]string, 0, len(factors)),
		factors: make(map[string]float64, len(factors)),
	}
	for _, f := range factors {
		name := strings.TrimSpace(f.Activity)
		if name == "" {
			return nil, errors.New("factor activity name is required")
		}
		if _, dup := t.factors[name]; dup {
			return nil, fmt.Errorf("duplicate factor for activity %q", name)
		}
		if math.IsNaN(f.KgPerUnit) || math.IsInf(f.KgPerUnit, 0) || f.KgPerUnit <= 0 {
			return nil, fmt.Errorf("factor for activity %q must be a positive number, got %v", name, f.KgPerUnit)
		}
		t.order = append(t.order, name)
		t.factors[name] = f.KgPerUnit
	}
	return t, nil
}

// DefaultFactors returns the built-in household factor table.
func DefaultFactors() *FactorTable {
	t, err := NewFactorTable([]Factor{
		{Activity: ActivityElectricity, KgPerUnit: 0.277},
		{Activity: ActivityPetrol, KgPerUnit: 2.31},
		{Activity: ActivityDiesel, KgPerUnit: 2.68},
		{Activity: ActivityNaturalGas, KgPerUnit: 2.75},
		{Activity: ActivityOrganicWaste, KgPerUnit: 0.9},
		{Activity: ActivityPaper, KgPerUnit: 1.7},
		{Activity: ActivityPlastic, KgPerUnit: 6.0},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the factor for activity.
func (t *FactorTable) Lookup(activity string) (float64, bool) {
	f, ok := t.factors[activity]
	return f, ok
}

// Activities returns the activity names in table order.
func (t *FactorTable) Activities() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Factors returns a copy of the table entries in table order.
func (t *FactorTable) Factors() []Factor {
	out := make([]Factor, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, Factor{Activity: name, KgPerUnit: t.factors[name]})
	}
	return out
}

// Len reports the number of activities in the table.
func (t *FactorTable) Len() int { return len(t.order) }

// checkKnown returns an UnknownActivityError for the lexically first key of q
// missing from the table.
func (t *FactorTable) checkKnown(q Quantities) error {
	var unknown []string
	for activity := range q {
		if _, ok := t.factors[activity]; !ok {
			unknown = append(unknown, activity)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &UnknownActivityError{Activity: unknown[0]}
}
