package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a DLQ manager pass over a dead-lettered emission event.
const (
	dlqOutcomeRequeued    = "requeued"
	dlqOutcomeRetry       = "retry_scheduled"
	dlqOutcomeQuarantined = "quarantined"
)

var (
	dlqEntriesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbon_service",
		Subsystem: "dlq",
		Name:      "entries_total",
		Help:      "Dead-lettered emission events handled by the DLQ manager, by event type and outcome.",
	}, []string{"topic", "event_type", "outcome"})

	dlqBacklogGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "carbon_service",
		Subsystem: "dlq",
		Name:      "backlog_entries",
		Help:      "Dead-lettered emission events awaiting replay, by event type.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(dlqEntriesCounter, dlqBacklogGauge)
}

func recordDLQOutcome(entry dlqEntry, outcome string) {
	dlqEntriesCounter.WithLabelValues(entry.Topic, entry.EventType, outcome).Inc()
}

// refreshBacklog recounts unquarantined entries per event type. Query errors
// leave the previous values in place.
func refreshBacklog(ctx context.Context, pool *pgxpool.Pool) {
	rows, err := pool.Query(ctx, `SELECT event_type, COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL GROUP BY event_type`)
	if err != nil {
		return
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			eventType string
			count     int
		)
		if err := rows.Scan(&eventType, &count); err != nil {
			return
		}
		counts[eventType] = count
	}
	if rows.Err() != nil {
		return
	}
	setBacklog(counts)
}

// setBacklog publishes counts, reporting zero for cataloged event types that
// have no pending entries.
func setBacklog(counts map[string]int) {
	dlqBacklogGauge.Reset()
	for eventType := range schemaCatalog {
		dlqBacklogGauge.WithLabelValues(eventType).Set(0)
	}
	for eventType, count := range counts {
		dlqBacklogGauge.WithLabelValues(eventType).Set(float64(count))
	}
}
