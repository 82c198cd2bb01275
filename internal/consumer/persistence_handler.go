package consumer

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertEventLog = `INSERT INTO emission_event_log
        (event_type, tenant_id, user_id, record_date, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
    VALUES ($1,$2,$3,$4::date,$5,$6,$7,$8,$9,$10,$11)
    ON CONFLICT ON CONSTRAINT emission_event_log_position DO NOTHING`

// PersistenceHandler keeps an audit trail of consumed emission events in
// Postgres, indexed by the user and day each event concerns.
type PersistenceHandler struct {
	pool *pgxpool.Pool
}

// NewPersistenceHandler constructs a handler backed by pool.
func NewPersistenceHandler(pool *pgxpool.Pool) *PersistenceHandler {
	return &PersistenceHandler{pool: pool}
}

// Handle appends msg to emission_event_log. A redelivered offset is a no-op.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	subject := eventSubject(msg.Payload)
	_, err := h.pool.Exec(ctx, insertEventLog,
		msg.EventType, msg.TenantID, subject.userID, subject.date,
		msg.SchemaID, msg.SchemaSubject,
		msg.Topic, msg.Partition, msg.Offset,
		msg.Payload, msg.Timestamp,
	)
	return err
}

// auditSubject holds the nullable columns derived from an event payload.
type auditSubject struct {
	userID *string
	date   *string
}

// eventSubject extracts the user and record date shared by every emission
// event. Missing or malformed fields stay NULL so the event is still logged.
func eventSubject(payload json.RawMessage) auditSubject {
	var fields struct {
		UserID string `json:"user_id"`
		Date   string `json:"date"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return auditSubject{}
	}

	var subject auditSubject
	if fields.UserID != "" {
		subject.userID = &fields.UserID
	}
	if date, err := civil.ParseDate(fields.Date); err == nil {
		day := date.String()
		subject.date = &day
	}
	return subject
}
