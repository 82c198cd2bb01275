package emissions

import (
	"sort"
)

// Quantities maps activity name to a non-negative quantity for one submission.
type Quantities map[string]float64

// Breakdown maps activity name to emitted kg CO2.
type Breakdown map[string]float64

// Emission is a single breakdown entry, used where order matters.
type Emission struct {
	Activity string  `json:"activity"`
	Kg       float64 `json:"kg"`
}

// Result is the outcome of a calculation.
type Result struct {
	Total     float64
	Breakdown Breakdown

	// order holds the breakdown keys in factor-table order.
	order []string
}

// Calculator turns activity quantities into emissions using a fixed factor table.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	table *FactorTable
}

// NewCalculator constructs a Calculator bound to table.
func NewCalculator(table *FactorTable) *Calculator {
	return &Calculator{table: table}
}

// Table returns the factor table used by the calculator.
func (c *Calculator) Table() *FactorTable { return c.table }

// Calculate validates q and returns the total and per-activity breakdown.
//
// Unknown activities are reported before any quantity problem. Unknown keys
// have no position in the factor table, so they are examined in lexical order.
// Supplied activities are then validated and summed in factor-table order and
// the first offending activity is reported, so the same invalid input always
// names the same key. NaN and infinite quantities are rejected, as is any
// emission that would push the total past the float64 range; a successful
// result is always finite.
func (c *Calculator) Calculate(q Quantities) (Result, error) {
	if err := c.table.checkKnown(q); err != nil {
		return Result{}, err
	}

	res := Result{Breakdown: make(Breakdown, len(q)), order: make([]string, 0, len(q))}
	for _, activity := range c.table.order {
		qty, ok := q[activity]
		if !ok {
			continue
		}
		kg, err := emission(activity, qty, c.table.factors[activity], res.Total)
		if err != nil {
			return Result{}, err
		}
		res.Breakdown[activity] = kg
		res.order = append(res.order, activity)
		res.Total += kg
	}
	return res, nil
}

// Entries returns the breakdown in factor-table order.
func (r Result) Entries() []Emission {
	out := make([]Emission, 0, len(r.order))
	for _, activity := range r.order {
		out = append(out, Emission{Activity: activity, Kg: r.Breakdown[activity]})
	}
	return out
}

// Ranked returns the breakdown sorted by emission, highest first. Ties keep
// factor-table order.
func (r Result) Ranked() []Emission {
	out := r.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kg > out[j].Kg
	})
	return out
}
