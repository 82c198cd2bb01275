// Package domain defines the business logic for the carbon tracker service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"example.com/carbon/internal/emissions"
	"example.com/carbon/internal/observability"
	"example.com/carbon/internal/report"
)

var (
	// ErrRecordNotFound is returned when no record exists for the requested day.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidInput marks caller mistakes that are not calculation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// RecordStore captures persistence operations for daily records.
type RecordStore interface {
	// UpsertRecord stores rec, replacing any record for the same tenant, user and
	// date. A replaced record keeps its ID and CreatedAt, which are written back
	// to rec. It reports whether an existing record was replaced.
	UpsertRecord(ctx context.Context, rec *StoredRecord) (bool, error)
	GetRecord(ctx context.Context, tenantID, userID string, date civil.Date) (*StoredRecord, error)
	ListRecords(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]StoredRecord, *Cursor, error)
	// FetchHistory returns every record for the user; empty when the user is unknown.
	FetchHistory(ctx context.Context, tenantID, userID string) (emissions.History, error)
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithDailyLimit sets the per-day total above which records are flagged.
func WithDailyLimit(kg float64) Option {
	return func(s *Service) {
		if kg > 0 {
			s.dailyLimitKg = kg
		}
	}
}

// Service orchestrates emission workflows.
type Service struct {
	store        RecordStore
	table        *emissions.FactorTable
	calc         *emissions.Calculator
	agg          *emissions.Aggregator
	dailyLimitKg float64
	now          func() time.Time
}

// NewService constructs a Service around store and the given factor table.
func NewService(store RecordStore, table *emissions.FactorTable, opts ...Option) *Service {
	s := &Service{
		store:        store,
		table:        table,
		calc:         emissions.NewCalculator(table),
		agg:          emissions.NewAggregator(table),
		dailyLimitKg: emissions.DefaultDailyLimitKg,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factors exposes the factor table in order.
func (s *Service) Factors() []emissions.Factor {
	return s.table.Factors()
}

// DailyLimitKg returns the configured daily limit.
func (s *Service) DailyLimitKg() float64 {
	return s.dailyLimitKg
}

// Calculate runs the calculator without persisting anything.
func (s *Service) Calculate(q emissions.Quantities) (emissions.Result, error) {
	res, err := s.calc.Calculate(q)
	observability.RecordCalculation(res.Total, err)
	return res, err
}

// Report calculates q and derives ranking, advice and equivalents.
func (s *Service) Report(q emissions.Quantities) (report.Daily, error) {
	res, err := s.Calculate(q)
	if err != nil {
		return report.Daily{}, err
	}
	return report.Build(res, s.dailyLimitKg), nil
}

// SubmitRecordInput captures the payload from the API layer.
type SubmitRecordInput struct {
	TenantID   string
	UserID     string
	Date       civil.Date // Zero means today in UTC.
	Activities emissions.Quantities
}

// SubmitRecord calculates and stores a day's record, overwriting any record
// already stored for that day. The bool reports whether one was replaced.
func (s *Service) SubmitRecord(ctx context.Context, input SubmitRecordInput) (*StoredRecord, bool, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, false, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	res, err := s.Calculate(input.Activities)
	if err != nil {
		return nil, false, err
	}

	now := s.now().UTC()
	date := input.Date
	if date.IsZero() {
		date = civil.DateOf(now)
	}
	if !date.IsValid() {
		return nil, false, fmt.Errorf("%w: invalid date %s", ErrInvalidInput, date)
	}

	daily := emissions.NewDailyRecord(date, input.Activities, res, now)
	rec := StoredRecord{
		ID:            uuid.NewString(),
		TenantID:      input.TenantID,
		UserID:        input.UserID,
		Date:          daily.Date,
		Activities:    daily.Activities,
		Breakdown:     res.Breakdown,
		TotalEmission: daily.TotalEmission,
		LimitKg:       s.dailyLimitKg,
		ExceedsLimit:  res.Total > s.dailyLimitKg,
		RecordedAt:    daily.Timestamp,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	replaced, err := s.store.UpsertRecord(ctx, &rec)
	if err != nil {
		return nil, false, fmt.Errorf("store record: %w", err)
	}
	return &rec, replaced, nil
}

// GetRecord fetches the record for one day.
func (s *Service) GetRecord(ctx context.Context, tenantID, userID string, date civil.Date) (*StoredRecord, error) {
	rec, err := s.store.GetRecord(ctx, tenantID, userID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// ListRecords fetches records newest first with cursor pagination.
func (s *Service) ListRecords(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]StoredRecord, *Cursor, error) {
	return s.store.ListRecords(ctx, tenantID, userID, cursor, limit)
}

// MaxPeriodDays bounds the length of a PeriodTotal query.
const MaxPeriodDays = 3660

// PeriodSummary is the total for an inclusive date range.
type PeriodSummary struct {
	From  civil.Date
	To    civil.Date
	Total float64
}

// PeriodTotal sums the user's stored totals over [from, to].
func (s *Service) PeriodTotal(ctx context.Context, tenantID, userID string, from, to civil.Date) (PeriodSummary, error) {
	if to.Before(from) {
		return PeriodSummary{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidInput, from, to)
	}
	if to.DaysSince(from) >= MaxPeriodDays {
		return PeriodSummary{}, fmt.Errorf("%w: period exceeds %d days", ErrInvalidInput, MaxPeriodDays)
	}
	history, err := s.store.FetchHistory(ctx, tenantID, userID)
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("fetch history: %w", err)
	}
	total := s.agg.PeriodTotal(history, emissions.DateRange(from, to))
	if err := checkFinite(total); err != nil {
		return PeriodSummary{}, err
	}
	return PeriodSummary{From: from, To: to, Total: total}, nil
}

// WeekOverWeek compares the window ending at ref with the window before it.
func (s *Service) WeekOverWeek(ctx context.Context, tenantID, userID string, ref civil.Date, weekLength int) (emissions.WeekComparison, error) {
	history, err := s.store.FetchHistory(ctx, tenantID, userID)
	if err != nil {
		return emissions.WeekComparison{}, fmt.Errorf("fetch history: %w", err)
	}
	cmp := s.agg.WeekOverWeek(history, s.referenceDate(ref), weekLength)
	if err := checkFinite(cmp.CurrentTotal, cmp.PriorTotal, cmp.Change()); err != nil {
		return emissions.WeekComparison{}, err
	}
	return cmp, nil
}

// Cumulative returns lifetime per-activity totals for the user.
func (s *Service) Cumulative(ctx context.Context, tenantID, userID string) (emissions.Breakdown, error) {
	history, err := s.store.FetchHistory(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return s.agg.CumulativeByActivity(history)
}

// HistorySummary combines a week-over-week comparison with lifetime per-activity totals.
type HistorySummary struct {
	Weekly      emissions.WeekComparison
	Cumulative  emissions.Breakdown
	RecordCount int
}

// Summary aggregates the user's history around ref from a single history
// fetch. A zero ref means today in UTC.
func (s *Service) Summary(ctx context.Context, tenantID, userID string, ref civil.Date, weekLength int) (HistorySummary, error) {
	history, err := s.store.FetchHistory(ctx, tenantID, userID)
	if err != nil {
		return HistorySummary{}, fmt.Errorf("fetch history: %w", err)
	}

	cumulative, err := s.agg.CumulativeByActivity(history)
	if err != nil {
		return HistorySummary{}, err
	}
	weekly := s.agg.WeekOverWeek(history, s.referenceDate(ref), weekLength)
	if err := checkFinite(weekly.CurrentTotal, weekly.PriorTotal, weekly.Change()); err != nil {
		return HistorySummary{}, err
	}
	return HistorySummary{
		Weekly:      weekly,
		Cumulative:  cumulative,
		RecordCount: len(history),
	}, nil
}

// checkFinite rejects sums of stored totals that left the float64 range.
func checkFinite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: aggregated total exceeds the representable range", ErrInvalidInput)
		}
	}
	return nil
}

func (s *Service) referenceDate(ref civil.Date) civil.Date {
	if ref.IsZero() {
		return civil.DateOf(s.now().UTC())
	}
	return ref
}
