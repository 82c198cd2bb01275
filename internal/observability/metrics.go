package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/carbon/internal/emissions"
)

var (
	calculationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbon_service",
		Subsystem: "calculator",
		Name:      "calculations_total",
		Help:      "Number of emission calculations, labeled by outcome.",
	}, []string{"outcome"})

	calculatedTotalHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carbon_service",
		Subsystem: "calculator",
		Name:      "total_kg",
		Help:      "Distribution of successfully calculated totals in kg CO2.",
		Buckets:   []float64{1, 5, 10, 25, 50, 70, 100, 250, 500, 1000},
	})

	recordPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbon_service",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent daily record persisted.",
	})

	recordsReplacedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbon_service",
		Subsystem: "persistence",
		Name:      "records_replaced_total",
		Help:      "Number of same-day submissions that overwrote an existing record.",
	})
)

func init() {
	prometheus.MustRegister(calculationsCounter, calculatedTotalHistogram, recordPersistGauge, recordsReplacedCounter)
}

// Calculation outcomes used as label values.
const (
	OutcomeOK               = "ok"
	OutcomeUnknownActivity  = "unknown_activity"
	OutcomeNegativeQuantity = "negative_quantity"
	OutcomeInvalidQuantity  = "invalid_quantity"
	OutcomeOverflow         = "overflow"
	OutcomeError            = "error"
)

// RecordCalculation counts a calculation and, on success, observes its total.
func RecordCalculation(total float64, err error) {
	outcome := OutcomeOK
	switch {
	case err == nil:
		calculatedTotalHistogram.Observe(total)
	case errors.Is(err, emissions.ErrUnknownActivity):
		outcome = OutcomeUnknownActivity
	case errors.Is(err, emissions.ErrNegativeQuantity):
		outcome = OutcomeNegativeQuantity
	case errors.Is(err, emissions.ErrInvalidQuantity):
		outcome = OutcomeInvalidQuantity
	case errors.Is(err, emissions.ErrEmissionOverflow):
		outcome = OutcomeOverflow
	default:
		outcome = OutcomeError
	}
	calculationsCounter.WithLabelValues(outcome).Inc()
}

// RecordPersisted updates the persistence watermark gauge.
func RecordPersisted(ts time.Time, replaced bool) {
	if replaced {
		recordsReplacedCounter.Inc()
	}
	if ts.IsZero() {
		return
	}
	recordPersistGauge.Set(float64(ts.Unix()))
}
