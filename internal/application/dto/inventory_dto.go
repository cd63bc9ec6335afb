package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

// RecordMovementRequest body para POST /api/inventory/:id/movements.
// Quantity es la magnitud en increment/decrement y el delta con signo en adjustment.
type RecordMovementRequest struct {
	Type      string          `json:"type" validate:"required,oneof=increment decrement adjustment"`
	Quantity  decimal.Decimal `json:"quantity" validate:"ne=0"`
	Reason    string          `json:"reason" validate:"max=500"`
	Reference string          `json:"reference" validate:"max=255"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID             string          `json:"id"`
	Sequence       int64           `json:"sequence"`
	InventoryID    string          `json:"inventory_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Reason         string          `json:"reason,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by,omitempty"`
}

// NewMovementResponse convierte la entidad.
func NewMovementResponse(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		Sequence:       m.Sequence,
		InventoryID:    m.InventoryID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		Reference:      m.Reference,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

// MovementListResponse página de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
