package emissions

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// DailyRecord is one user's activities and total for a calendar day.
type DailyRecord struct {
	Date          civil.Date `json:"date"`
	Activities    Quantities `json:"activities"`
	TotalEmission float64    `json:"total_emission"`
	Timestamp     time.Time  `json:"timestamp"`
}

// NewDailyRecord builds the record persisted for a calculation.
func NewDailyRecord(date civil.Date, q Quantities, res Result, at time.Time) DailyRecord {
	activities := make(Quantities, len(q))
	for k, v := range q {
		activities[k] = v
	}
	return DailyRecord{
		Date:          date,
		Activities:    activities,
		TotalEmission: res.Total,
		Timestamp:     at.UTC(),
	}
}

// History is a user's daily records ordered by date, at most one per day.
type History []DailyRecord

// NewHistory sorts records by date and keeps only the latest write per day.
func NewHistory(records ...DailyRecord) History {
	byDate := make(map[civil.Date]DailyRecord, len(records))
	for _, rec := range records {
		existing, ok := byDate[rec.Date]
		if ok && existing.Timestamp.After(rec.Timestamp) {
			continue
		}
		byDate[rec.Date] = rec
	}

	out := make(History, 0, len(byDate))
	for _, rec := range byDate {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// DateSet is a set of calendar days.
type DateSet map[civil.Date]struct{}

// DateSetOf builds a set from the given dates.
func DateSetOf(dates ...civil.Date) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// DateRange returns every day in [from, to]. An inverted range is empty.
func DateRange(from, to civil.Date) DateSet {
	if to.Before(from) {
		return DateSet{}
	}
	set := make(DateSet, to.DaysSince(from)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		set[d] = struct{}{}
	}
	return set
}

// Contains reports whether d is in the set.
func (s DateSet) Contains(d civil.Date) bool {
	_, ok := s[d]
	return ok
}
