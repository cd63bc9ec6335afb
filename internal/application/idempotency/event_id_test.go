package idempotency_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventory-service/internal/application/idempotency"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

func TestGenerateEventID_UsaEventIDExplicito(t *testing.T) {
	ev := entity.Event{ID: "evt-1", Type: entity.EventProductCreated, Payload: json.RawMessage(`{"a":1}`)}
	assert.Equal(t, "evt-1", idempotency.GenerateEventID(ev))
}

func TestGenerateEventID_Determinista(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 123, time.UTC)
	a := entity.Event{
		Type:        entity.EventStockReceived,
		AggregateID: "prod-1",
		Source:      "products-service",
		OccurredAt:  at,
		Payload:     json.RawMessage(`{"productId":"prod-1","quantity":5,"reference":"PO-9"}`),
	}
	// Mismo evento lógico: otro orden de claves, espacios y zona horaria.
	b := a
	b.OccurredAt = at.In(time.FixedZone("COT", -5*3600))
	b.Payload = json.RawMessage(` { "reference": "PO-9", "quantity": 5,  "productId": "prod-1" } `)

	idA := idempotency.GenerateEventID(a)
	assert.Equal(t, idA, idempotency.GenerateEventID(a), "misma entrada, mismo id")
	assert.Equal(t, idA, idempotency.GenerateEventID(b))
	assert.True(t, strings.HasPrefix(idA, entity.EventStockReceived+":"))
}

func TestGenerateEventID_CambiaConElContenido(t *testing.T) {
	base := entity.Event{
		Type:        entity.EventStockReceived,
		AggregateID: "prod-1",
		Payload:     json.RawMessage(`{"quantity":5}`),
	}
	other := base
	other.Payload = json.RawMessage(`{"quantity":6}`)
	assert.NotEqual(t, idempotency.GenerateEventID(base), idempotency.GenerateEventID(other))

	otherType := base
	otherType.Type = entity.EventStockAdjusted
	assert.NotEqual(t, idempotency.GenerateEventID(base), idempotency.GenerateEventID(otherType))

	// Los separadores evitan colisiones por concatenación.
	x := entity.Event{Type: "t", AggregateID: "ab", Source: "c"}
	y := entity.Event{Type: "t", AggregateID: "a", Source: "bc"}
	assert.NotEqual(t, idempotency.GenerateEventID(x), idempotency.GenerateEventID(y))
}

func TestGenerateEventID_NumerosGrandesSinPerdida(t *testing.T) {
	a := entity.Event{Type: "t", Payload: json.RawMessage(`{"n":9007199254740993}`)}
	b := entity.Event{Type: "t", Payload: json.RawMessage(`{"n":9007199254740992}`)}
	assert.NotEqual(t, idempotency.GenerateEventID(a), idempotency.GenerateEventID(b))
}

func TestGenerateEventID_PayloadVacioONull(t *testing.T) {
	a := entity.Event{Type: "t", AggregateID: "1"}
	b := entity.Event{Type: "t", AggregateID: "1", Payload: json.RawMessage(`null`)}
	assert.Equal(t, idempotency.GenerateEventID(a), idempotency.GenerateEventID(b))
}
