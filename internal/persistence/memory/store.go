// Package memory provides an in-process RecordStore for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"cloud.google.com/go/civil"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/emissions"
	"example.com/carbon/internal/observability"
)

type userKey struct {
	tenantID string
	userID   string
}

// Store keeps records in memory keyed by tenant, user and date.
type Store struct {
	mu      sync.RWMutex
	records map[userKey]map[civil.Date]domain.StoredRecord
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[userKey]map[civil.Date]domain.StoredRecord)}
}

// UpsertRecord implements domain.RecordStore.
func (s *Store) UpsertRecord(_ context.Context, rec *domain.StoredRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userKey{tenantID: rec.TenantID, userID: rec.UserID}
	days, ok := s.records[key]
	if !ok {
		days = make(map[civil.Date]domain.StoredRecord)
		s.records[key] = days
	}

	existing, replaced := days[rec.Date]
	if replaced {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}
	days[rec.Date] = cloneRecord(*rec)
	observability.RecordPersisted(rec.UpdatedAt, replaced)
	return replaced, nil
}

// GetRecord implements domain.RecordStore. It returns nil when no record exists.
func (s *Store) GetRecord(_ context.Context, tenantID, userID string, date civil.Date) (*domain.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userKey{tenantID: tenantID, userID: userID}][date]
	if !ok {
		return nil, nil
	}
	out := cloneRecord(rec)
	return &out, nil
}

// ListRecords implements domain.RecordStore, newest first.
func (s *Store) ListRecords(_ context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.StoredRecord, *domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := s.records[userKey{tenantID: tenantID, userID: userID}]
	all := make([]domain.StoredRecord, 0, len(days))
	for _, rec := range days {
		if cursor != nil && !rec.Date.Before(cursor.Date) {
			continue
		}
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})

	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	results := make([]domain.StoredRecord, 0, limit)
	for _, rec := range all[:limit] {
		results = append(results, cloneRecord(rec))
	}

	var next *domain.Cursor
	if len(results) > 0 && len(results) < len(all) {
		last := results[len(results)-1]
		next = &domain.Cursor{Date: last.Date, ID: last.ID}
	}
	return results, next, nil
}

// FetchHistory implements domain.RecordStore.
func (s *Store) FetchHistory(_ context.Context, tenantID, userID string) (emissions.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := s.records[userKey{tenantID: tenantID, userID: userID}]
	records := make([]domain.StoredRecord, 0, len(days))
	for _, rec := range days {
		records = append(records, cloneRecord(rec))
	}
	return domain.HistoryOf(records), nil
}

func cloneRecord(rec domain.StoredRecord) domain.StoredRecord {
	activities := make(emissions.Quantities, len(rec.Activities))
	for k, v := range rec.Activities {
		activities[k] = v
	}
	breakdown := make(emissions.Breakdown, len(rec.Breakdown))
	for k, v := range rec.Breakdown {
		breakdown[k] = v
	}
	rec.Activities = activities
	rec.Breakdown = breakdown
	return rec
}
