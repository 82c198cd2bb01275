package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertDeadLetter = `INSERT INTO outbox_dlq (tenant_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, next_retry_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, NOW())`

// deadLetterWriter parks emission events the dispatcher could not deliver.
// The DLQManager replays them later.
type deadLetterWriter struct {
	pool *pgxpool.Pool
}

// park stores messages in outbox_dlq with one transaction per tenant.
func (w *deadLetterWriter) park(ctx context.Context, messages []Message, cause error) error {
	var tenants []string
	byTenant := make(map[string][]Message)
	for _, msg := range messages {
		if _, seen := byTenant[msg.TenantID]; !seen {
			tenants = append(tenants, msg.TenantID)
		}
		byTenant[msg.TenantID] = append(byTenant[msg.TenantID], msg)
	}

	for _, tenantID := range tenants {
		if err := w.parkTenant(ctx, tenantID, byTenant[tenantID], cause); err != nil {
			return fmt.Errorf("park events for tenant %s: %w", tenantID, err)
		}
	}
	return nil
}

func (w *deadLetterWriter) parkTenant(ctx context.Context, tenantID string, messages []Message, cause error) error {
	tx, err := beginTenantTx(ctx, w.pool, tenantID)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, msg := range messages {
		if _, err := tx.Exec(ctx, insertDeadLetter,
			msg.TenantID, msg.EventID, msg.EventType, msg.Topic, msg.Payload, deadLetterReason(cause, msg),
			msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func deadLetterReason(cause error, msg Message) string {
	return fmt.Sprintf("%v (topic=%s)", cause, msg.Topic)
}

// beginTenantTx opens a transaction with app.tenant_id set for row-level
// security policies.
func beginTenantTx(ctx context.Context, pool *pgxpool.Pool, tenantID string) (pgx.Tx, error) {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return tx, nil
}
