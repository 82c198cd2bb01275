package domain

import (
	"time"

	"cloud.google.com/go/civil"

	"example.com/carbon/internal/emissions"
)

// StoredRecord is a user's daily emission record as persisted by a RecordStore.
type StoredRecord struct {
	ID            string
	TenantID      string
	UserID        string
	Date          civil.Date
	Activities    emissions.Quantities
	Breakdown     emissions.Breakdown
	TotalEmission float64
	LimitKg       float64
	ExceedsLimit  bool
	RecordedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Daily returns the core view of the record used by the aggregator.
func (r StoredRecord) Daily() emissions.DailyRecord {
	return emissions.DailyRecord{
		Date:          r.Date,
		Activities:    r.Activities,
		TotalEmission: r.TotalEmission,
		Timestamp:     r.RecordedAt,
	}
}

// HistoryOf converts stored records into an ordered History.
func HistoryOf(records []StoredRecord) emissions.History {
	daily := make([]emissions.DailyRecord, 0, len(records))
	for _, rec := range records {
		daily = append(daily, rec.Daily())
	}
	return emissions.NewHistory(daily...)
}

// Cursor models the pagination token for record listings (newest first).
type Cursor struct {
	Date civil.Date
	ID   string
}
