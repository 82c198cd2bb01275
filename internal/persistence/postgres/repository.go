// Package postgres implements the record store on PostgreSQL with a
// transactional outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/emissions"
	"example.com/carbon/internal/events"
	"example.com/carbon/internal/observability"
)

const (
	insertColumns = `record_id, tenant_id, user_id, record_date, activities, breakdown, total_emission, limit_kg, exceeds_limit, recorded_at, created_at, updated_at`
	selectColumns = `record_id::text, tenant_id, user_id, record_date, activities, breakdown, total_emission, limit_kg, exceeds_limit, recorded_at, created_at, updated_at`
)

// Repository provides Postgres-backed persistence for daily records and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertRecord stores the record and its outbox events inside a single transaction.
func (r *Repository) UpsertRecord(ctx context.Context, rec *domain.StoredRecord) (bool, error) {
	activities, err := json.Marshal(rec.Activities)
	if err != nil {
		return false, err
	}
	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return false, err
	}

	const upsert = `INSERT INTO daily_records (` + insertColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT ON CONSTRAINT daily_records_user_day DO UPDATE SET
            activities = EXCLUDED.activities,
            breakdown = EXCLUDED.breakdown,
            total_emission = EXCLUDED.total_emission,
            limit_kg = EXCLUDED.limit_kg,
            exceeds_limit = EXCLUDED.exceeds_limit,
            recorded_at = EXCLUDED.recorded_at,
            updated_at = EXCLUDED.updated_at
        RETURNING record_id::text, created_at, (xmax = 0) AS inserted`

	var inserted bool
	err = r.withTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, upsert,
			rec.ID,
			rec.TenantID,
			rec.UserID,
			rec.Date.In(time.UTC),
			activities,
			breakdown,
			rec.TotalEmission,
			rec.LimitKg,
			rec.ExceedsLimit,
			rec.RecordedAt,
			rec.CreatedAt,
			rec.UpdatedAt,
		)
		if err := row.Scan(&rec.ID, &rec.CreatedAt, &inserted); err != nil {
			return err
		}

		if err := r.insertOutbox(ctx, tx, *rec, events.TypeEmissionRecorded, events.EmissionRecorded{
			RecordID:      rec.ID,
			TenantID:      rec.TenantID,
			UserID:        rec.UserID,
			Date:          rec.Date.String(),
			Activities:    rec.Activities,
			Breakdown:     rec.Breakdown,
			TotalEmission: rec.TotalEmission,
			Replaced:      !inserted,
			RecordedAt:    rec.RecordedAt,
		}); err != nil {
			return err
		}

		if !rec.ExceedsLimit {
			return nil
		}
		return r.insertOutbox(ctx, tx, *rec, events.TypeEmissionLimitExceeded, events.EmissionLimitExceeded{
			RecordID:      rec.ID,
			TenantID:      rec.TenantID,
			UserID:        rec.UserID,
			Date:          rec.Date.String(),
			TotalEmission: rec.TotalEmission,
			LimitKg:       rec.LimitKg,
			ExcessKg:      rec.TotalEmission - rec.LimitKg,
			OccurredAt:    rec.RecordedAt,
		})
	})
	if err != nil {
		return false, err
	}

	observability.RecordPersisted(rec.UpdatedAt, !inserted)
	return !inserted, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, rec domain.StoredRecord, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s:%d", rec.ID, eventType, rec.UpdatedAt.UnixNano())

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		rec.TenantID,
		"daily_record",
		rec.ID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(rec),
		body,
		dedupeKey,
	)
	return err
}

// GetRecord retrieves the record for one day. It returns nil when none exists.
func (r *Repository) GetRecord(ctx context.Context, tenantID, userID string, date civil.Date) (*domain.StoredRecord, error) {
	const query = `SELECT ` + selectColumns + ` FROM daily_records WHERE tenant_id=$1 AND user_id=$2 AND record_date=$3`

	var rec *domain.StoredRecord
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		scanned, err := scanRecord(tx.QueryRow(ctx, query, tenantID, userID, date.In(time.UTC)))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		rec = &scanned
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns records for a user ordered newest first.
func (r *Repository) ListRecords(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.StoredRecord, *domain.Cursor, error) {
	args := []interface{}{tenantID, userID, limit}
	query := `SELECT ` + selectColumns + ` FROM daily_records WHERE tenant_id=$1 AND user_id=$2`

	if cursor != nil {
		query += ` AND (record_date, record_id::text) < ($4, $5)`
		args = append(args, cursor.Date.In(time.UTC), cursor.ID)
	}

	query += ` ORDER BY record_date DESC, record_id::text DESC LIMIT $3`

	results := make([]domain.StoredRecord, 0, limit)
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		results, err = queryRecords(ctx, tx, query, args...)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if limit > 0 && len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{Date: last.Date, ID: last.ID}
	}
	return results, nextCursor, nil
}

// FetchHistory loads every record for the user.
func (r *Repository) FetchHistory(ctx context.Context, tenantID, userID string) (emissions.History, error) {
	const query = `SELECT ` + selectColumns + ` FROM daily_records WHERE tenant_id=$1 AND user_id=$2 ORDER BY record_date`

	var records []domain.StoredRecord
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		records, err = queryRecords(ctx, tx, query, tenantID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return domain.HistoryOf(records), nil
}

// withTenant runs fn in a transaction scoped to tenantID for row level security.
func (r *Repository) withTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func queryRecords(ctx context.Context, tx pgx.Tx, query string, args ...interface{}) ([]domain.StoredRecord, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (domain.StoredRecord, error) {
	var (
		rec        domain.StoredRecord
		recordDate time.Time
		activities []byte
		breakdown  []byte
	)
	if err := row.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &recordDate, &activities, &breakdown, &rec.TotalEmission, &rec.LimitKg, &rec.ExceedsLimit, &rec.RecordedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return domain.StoredRecord{}, err
	}
	rec.Date = civil.DateOf(recordDate)
	if err := json.Unmarshal(activities, &rec.Activities); err != nil {
		return domain.StoredRecord{}, fmt.Errorf("decode activities for record %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(breakdown, &rec.Breakdown); err != nil {
		return domain.StoredRecord{}, fmt.Errorf("decode breakdown for record %s: %w", rec.ID, err)
	}
	return rec, nil
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.StoredRecord) string
}

func userPartitionKey(rec domain.StoredRecord) string {
	return fmt.Sprintf("%s:%s", rec.TenantID, rec.UserID)
}

var eventCatalog = map[string]EventMetadata{
	events.TypeEmissionRecorded: {
		Topic:          events.TopicRecords,
		SchemaSubject:  "emission_records-value",
		PartitionKeyFn: userPartitionKey,
	},
	events.TypeEmissionLimitExceeded: {
		Topic:          events.TopicAlerts,
		SchemaSubject:  "emission_alerts-value",
		PartitionKeyFn: userPartitionKey,
	},
}
