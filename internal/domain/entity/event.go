package entity

import (
	"encoding/json"
	"time"
)

// Tipos de evento consumidos desde el bus.
const (
	EventProductCreated      = "product.created"
	EventProductPriceChanged = "product.price_changed"
	EventStockReceived       = "stock.received"
	EventOrderPlaced         = "order.placed"
	EventStockAdjusted       = "stock.adjusted"

	// Publicado por este servicio tras cada movimiento.
	EventMovementRecorded = "inventory.movement_recorded"
)

// Event sobre (envelope) de un evento de dominio recibido por Kafka.
// Payload se conserva como JSON crudo del servicio que lo originó.
type Event struct {
	ID          string          `json:"eventId,omitempty"`
	Type        string          `json:"eventType" validate:"required"`
	AggregateID string          `json:"aggregateId,omitempty"`
	Source      string          `json:"source,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}
