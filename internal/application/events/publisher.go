package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/inventory-service/internal/application/inventory"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

// Producer envía un sobre de evento al bus, particionado por key.
type Producer interface {
	Publish(ctx context.Context, key string, ev entity.Event) error
}

var _ inventory.MovementPublisher = (*MovementPublisher)(nil)

// MovementPublisher anuncia cada movimiento confirmado como inventory.movement_recorded.
type MovementPublisher struct {
	producer Producer
	source   string
}

// NewMovementPublisher construye el publicador. source identifica a este servicio en el sobre.
func NewMovementPublisher(p Producer, source string) *MovementPublisher {
	return &MovementPublisher{producer: p, source: source}
}

// PublishMovement usa el ID del movimiento como eventId: una republicación no duplica efectos aguas abajo.
func (p *MovementPublisher) PublishMovement(ctx context.Context, inv *entity.Inventory, m *entity.InventoryMovement) error {
	payload, err := json.Marshal(MovementRecorded{
		MovementID:     m.ID,
		InventoryID:    m.InventoryID,
		ProductID:      inv.ProductID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		Reference:      m.Reference,
		CreatedBy:      m.CreatedBy,
	})
	if err != nil {
		return fmt.Errorf("serializar movimiento: %w", err)
	}
	ev := entity.Event{
		ID:          "movement:" + m.ID,
		Type:        entity.EventMovementRecorded,
		AggregateID: m.InventoryID,
		Source:      p.source,
		OccurredAt:  m.CreatedAt,
		Payload:     payload,
	}
	return p.producer.Publish(ctx, m.InventoryID, ev)
}
