package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	scoreComputations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quantifyme",
		Subsystem: "score",
		Name:      "computations_total",
		Help:      "Number of daily scores computed.",
	})
	recordsUpserted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quantifyme",
		Subsystem: "store",
		Name:      "records_upserted_total",
		Help:      "Number of daily records written through upsert or add.",
	})
	recordPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quantifyme",
		Subsystem: "store",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent daily record persisted.",
	})
	interpretationFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantifyme",
		Subsystem: "ai",
		Name:      "interpretation_fallbacks_total",
		Help:      "Interpretations served by the deterministic stub instead of the LLM.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(scoreComputations, recordsUpserted, recordPersistGauge, interpretationFallbacks)
}

// RecordScoreComputed incrementa el contador de calculos de score.
func RecordScoreComputed() {
	scoreComputations.Inc()
}

// RecordPersisted actualiza contador y marca de agua de persistencia.
func RecordPersisted(ts time.Time) {
	recordsUpserted.Inc()
	if ts.IsZero() {
		return
	}
	recordPersistGauge.Set(float64(ts.Unix()))
}

// RecordInterpretationFallback registra un fallback al stub con su causa.
func RecordInterpretationFallback(reason string) {
	interpretationFallbacks.WithLabelValues(reason).Inc()
}
