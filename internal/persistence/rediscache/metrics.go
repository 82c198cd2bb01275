package rediscache

import "github.com/prometheus/client_golang/prometheus"

var (
	lookupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbon_service",
		Subsystem: "history_cache",
		Name:      "lookups_total",
		Help:      "History cache lookups, labeled by result.",
	}, []string{"result"})

	errorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbon_service",
		Subsystem: "history_cache",
		Name:      "errors_total",
		Help:      "Redis failures absorbed by the history cache, labeled by operation.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(lookupCounter, errorCounter)
}

func recordCacheLookup(hit bool) {
	if hit {
		lookupCounter.WithLabelValues("hit").Inc()
		return
	}
	lookupCounter.WithLabelValues("miss").Inc()
}

func recordCacheError(op string) {
	errorCounter.WithLabelValues(op).Inc()
}
