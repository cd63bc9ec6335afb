package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory stock actual de un producto. Quantity solo cambia a través del ledger,
// que en la misma transacción agrega el InventoryMovement correspondiente.
type Inventory struct {
	ID        string
	ProductID string
	SKU       string
	Quantity  decimal.Decimal
	Price     decimal.Decimal // último precio conocido (product.price_changed)
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
