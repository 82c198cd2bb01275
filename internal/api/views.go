package api

import (
	"time"

	"cloud.google.com/go/civil"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/emissions"
)

// FactorsResponse lists the factor table in its canonical order.
type FactorsResponse struct {
	Factors      []emissions.Factor `json:"factors"`
	DailyLimitKg float64            `json:"daily_limit_kg"`
}

// CalculateRequest is the payload for POST /v1/emissions/calculate.
type CalculateRequest struct {
	Activities emissions.Quantities `json:"activities"`
}

// SubmitRecordRequest is the payload for POST /v1/records. An empty user_id
// means the caller; an empty date means today in UTC.
type SubmitRecordRequest struct {
	UserID     string               `json:"user_id"`
	Date       string               `json:"date"`
	Activities emissions.Quantities `json:"activities"`
}

// RecordView exposes a stored daily record.
type RecordView struct {
	RecordID      string               `json:"record_id"`
	UserID        string               `json:"user_id"`
	Date          civil.Date           `json:"date"`
	Activities    emissions.Quantities `json:"activities"`
	Breakdown     emissions.Breakdown  `json:"breakdown"`
	TotalEmission float64              `json:"total_emission"`
	LimitKg       float64              `json:"limit_kg"`
	ExceedsLimit  bool                 `json:"exceeds_limit"`
	RecordedAt    time.Time            `json:"recorded_at"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// SubmitRecordResponse describes the response body for a submission.
type SubmitRecordResponse struct {
	Record   RecordView `json:"record"`
	Replaced bool       `json:"replaced"`
}

// ListRecordsResponse packages list results.
type ListRecordsResponse struct {
	Items      []RecordView `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// WindowView is one side of a week-over-week comparison.
type WindowView struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
	Total float64    `json:"total"`
}

// SummaryResponse merges the weekly comparison with lifetime per-activity totals.
type SummaryResponse struct {
	UserID      string              `json:"user_id"`
	WeekLength  int                 `json:"week_length"`
	CurrentWeek WindowView          `json:"current_week"`
	PriorWeek   WindowView          `json:"prior_week"`
	ChangeKg    float64             `json:"change_kg"`
	Cumulative  emissions.Breakdown `json:"cumulative"`
	RecordCount int                 `json:"record_count"`
}

// PeriodResponse is the total over an inclusive date range.
type PeriodResponse struct {
	UserID string     `json:"user_id"`
	From   civil.Date `json:"from"`
	To     civil.Date `json:"to"`
	Total  float64    `json:"total"`
}

func toRecordView(rec domain.StoredRecord) RecordView {
	return RecordView{
		RecordID:      rec.ID,
		UserID:        rec.UserID,
		Date:          rec.Date,
		Activities:    rec.Activities,
		Breakdown:     rec.Breakdown,
		TotalEmission: rec.TotalEmission,
		LimitKg:       rec.LimitKg,
		ExceedsLimit:  rec.ExceedsLimit,
		RecordedAt:    rec.RecordedAt,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toSummaryResponse(userID string, weekLength int, s domain.HistorySummary) SummaryResponse {
	cumulative := s.Cumulative
	if cumulative == nil {
		cumulative = emissions.Breakdown{}
	}
	return SummaryResponse{
		UserID:     userID,
		WeekLength: weekLength,
		CurrentWeek: WindowView{
			Start: s.Weekly.CurrentStart,
			End:   s.Weekly.CurrentEnd,
			Total: s.Weekly.CurrentTotal,
		},
		PriorWeek: WindowView{
			Start: s.Weekly.PriorStart,
			End:   s.Weekly.PriorEnd,
			Total: s.Weekly.PriorTotal,
		},
		ChangeKg:    s.Weekly.Change(),
		Cumulative:  cumulative,
		RecordCount: s.RecordCount,
	}
}
