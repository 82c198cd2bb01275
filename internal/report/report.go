// Package report assembles the read model handed to HTTP and CLI callers for a
// single calculation.
package report

import "example.com/carbon/internal/emissions"

// Daily is the full presentation payload for one calculation.
type Daily struct {
	Total       float64              `json:"total"`
	Breakdown   []emissions.Emission `json:"breakdown"`
	Ranking     []emissions.Emission `json:"ranking"`
	Advice      emissions.Advice     `json:"advice"`
	Equivalents []Equivalent         `json:"equivalents"`
}

// Build derives ranking, advice, and equivalents from res.
func Build(res emissions.Result, limitKg float64) Daily {
	return Daily{
		Total:       res.Total,
		Breakdown:   res.Entries(),
		Ranking:     res.Ranked(),
		Advice:      emissions.Advise(res, limitKg),
		Equivalents: Equivalents(res.Total),
	}
}
