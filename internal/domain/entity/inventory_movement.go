package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIncrement  = "increment"  // entrada
	MovementTypeDecrement  = "decrement"  // salida
	MovementTypeAdjustment = "adjustment" // ajuste (delta con signo)
)

// ValidMovementType indica si t es un tipo de movimiento soportado por el ledger.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeIncrement, MovementTypeDecrement, MovementTypeAdjustment:
		return true
	}
	return false
}

// InventoryMovement registro inmutable del ledger de inventario.
// Invariante: QuantityAfter = QuantityBefore + Quantity y QuantityAfter >= 0.
type InventoryMovement struct {
	ID             string
	Sequence       int64 // desempate para movimientos con el mismo created_at
	InventoryID    string
	Type           string
	Quantity       decimal.Decimal // delta con signo: negativo en salidas
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	Reason         string
	Reference      string
	Metadata       json.RawMessage
	CreatedAt      time.Time
	CreatedBy      string
}
