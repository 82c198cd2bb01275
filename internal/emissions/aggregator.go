package emissions

import "cloud.google.com/go/civil"

// DefaultWeekLength is the window used by WeekOverWeek when none is given.
const DefaultWeekLength = 7

// Aggregator summarises a user's history. Like Calculator it is stateless.
type Aggregator struct {
	table *FactorTable
}

// NewAggregator constructs an Aggregator bound to table.
func NewAggregator(table *FactorTable) *Aggregator {
	return &Aggregator{table: table}
}

// PeriodTotal sums TotalEmission over the records whose date is in dates.
// Days without a record contribute nothing.
func (a *Aggregator) PeriodTotal(h History, dates DateSet) float64 {
	var total float64
	if len(h) == 0 || len(dates) == 0 {
		return total
	}
	for _, rec := range h {
		if dates.Contains(rec.Date) {
			total += rec.TotalEmission
		}
	}
	return total
}

// CumulativeByActivity re-derives per-activity emissions across every record
// using the current factor table. A stored activity that the table no longer
// knows is reported rather than dropped, and stored quantities are validated
// the same way Calculate validates them.
func (a *Aggregator) CumulativeByActivity(h History) (Breakdown, error) {
	out := make(Breakdown)
	for _, rec := range h {
		if err := a.table.checkKnown(rec.Activities); err != nil {
			return nil, err
		}
		for _, activity := range a.table.order {
			qty, ok := rec.Activities[activity]
			if !ok {
				continue
			}
			kg, err := emission(activity, qty, a.table.factors[activity], out[activity])
			if err != nil {
				return nil, err
			}
			out[activity] += kg
		}
	}
	return out, nil
}

// WeekComparison holds two adjacent, equally sized periods.
type WeekComparison struct {
	CurrentStart civil.Date `json:"current_start"`
	CurrentEnd   civil.Date `json:"current_end"`
	PriorStart   civil.Date `json:"prior_start"`
	PriorEnd     civil.Date `json:"prior_end"`
	CurrentTotal float64    `json:"current_total"`
	PriorTotal   float64    `json:"prior_total"`
}

// Change returns CurrentTotal minus PriorTotal.
func (w WeekComparison) Change() float64 {
	return w.CurrentTotal - w.PriorTotal
}

// WeekOverWeek totals the weekLength days ending at ref and the weekLength
// days immediately before them. A non-positive weekLength uses DefaultWeekLength.
func (a *Aggregator) WeekOverWeek(h History, ref civil.Date, weekLength int) WeekComparison {
	if weekLength <= 0 {
		weekLength = DefaultWeekLength
	}

	cmp := WeekComparison{
		CurrentEnd:   ref,
		CurrentStart: ref.AddDays(-(weekLength - 1)),
	}
	cmp.PriorEnd = cmp.CurrentStart.AddDays(-1)
	cmp.PriorStart = cmp.PriorEnd.AddDays(-(weekLength - 1))

	cmp.CurrentTotal = a.PeriodTotal(h, DateRange(cmp.CurrentStart, cmp.CurrentEnd))
	cmp.PriorTotal = a.PeriodTotal(h, DateRange(cmp.PriorStart, cmp.PriorEnd))
	return cmp
}
