package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/inventory-service/internal/application/idempotency"
)

var _ idempotency.Recorder = (*Metrics)(nil)

// Metrics contadores del worker: resultados de idempotencia, decisiones del consumidor y limpieza.
type Metrics struct {
	events         *prometheus.CounterVec
	messages       *prometheus.CounterVec
	processing     *prometheus.HistogramVec
	cleanupDeleted prometheus.Counter
	cleanupRuns    *prometheus.CounterVec
	cleanupLastRun prometheus.Gauge
}

// New registra las métricas en reg (prometheus.DefaultRegisterer en producción).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_events_total",
			Help: "Eventos por tipo y resultado de idempotencia (processed, skipped, failed)",
		}, []string{"event_type", "outcome"}),
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_consumer_messages_total",
			Help: "Mensajes Kafka por decisión del consumidor (commit, poison, retry)",
		}, []string{"decision"}),
		processing: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventory_event_processing_duration_seconds",
			Help:    "Duración del procesamiento de un mensaje",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type"}),
		cleanupDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "inventory_processed_events_cleanup_deleted_total",
			Help: "Registros de processed_events eliminados por la limpieza",
		}),
		cleanupRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_processed_events_cleanup_runs_total",
			Help: "Ejecuciones de limpieza por estado",
		}, []string{"status"}),
		cleanupLastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_processed_events_cleanup_last_run_timestamp_seconds",
			Help: "Momento de la última limpieza exitosa",
		}),
	}
}

// ObserveEvent implementa idempotency.Recorder.
func (m *Metrics) ObserveEvent(eventType string, outcome idempotency.Outcome) {
	m.events.WithLabelValues(eventType, string(outcome)).Inc()
}

// ObserveCleanup implementa idempotency.Recorder.
func (m *Metrics) ObserveCleanup(deleted int64, err error) {
	m.cleanupDeleted.Add(float64(deleted))
	if err != nil {
		m.cleanupRuns.WithLabelValues("error").Inc()
		return
	}
	m.cleanupRuns.WithLabelValues("ok").Inc()
	m.cleanupLastRun.SetToCurrentTime()
}

// ObserveMessage registra la decisión tomada para un mensaje y su duración.
func (m *Metrics) ObserveMessage(eventType, decision string, elapsed time.Duration) {
	m.messages.WithLabelValues(decision).Inc()
	if eventType == "" {
		eventType = "unknown"
	}
	m.processing.WithLabelValues(eventType).Observe(elapsed.Seconds())
}
