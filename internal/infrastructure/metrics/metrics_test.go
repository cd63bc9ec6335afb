package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventory-service/internal/application/idempotency"
)

func TestObserveEvent_CuentaPorTipoYResultado(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEvent("stock.received", idempotency.OutcomeProcessed)
	m.ObserveEvent("stock.received", idempotency.OutcomeSkipped)
	m.ObserveEvent("stock.received", idempotency.OutcomeSkipped)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("stock.received", "processed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("stock.received", "skipped")))
}

func TestObserveCleanup_SumaEliminadosYEstado(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCleanup(7, nil)
	m.ObserveCleanup(3, errors.New("timeout"))

	assert.Equal(t, 10.0, testutil.ToFloat64(m.cleanupDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleanupRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleanupRuns.WithLabelValues("error")))
	assert.Greater(t, testutil.ToFloat64(m.cleanupLastRun), 0.0)
}

func TestObserveMessage_RegistraDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveMessage("order.placed", "commit", 20*time.Millisecond)
	m.ObserveMessage("", "poison", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("poison")))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "inventory_event_processing_duration_seconds"))
}
