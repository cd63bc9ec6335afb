package events

import "github.com/shopspring/decimal"

// ProductCreated payload de product.created.
type ProductCreated struct {
	ProductID       string          `json:"productId" validate:"required"`
	SKU             string          `json:"sku" validate:"required"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price" validate:"gte=0"`
	Currency        string          `json:"currency" validate:"omitempty,currency"`
	InitialQuantity decimal.Decimal `json:"initialQuantity" validate:"gte=0"`
}

// ProductPriceChanged payload de product.price_changed.
type ProductPriceChanged struct {
	ProductID string          `json:"productId" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Currency  string          `json:"currency" validate:"required,currency"`
}

// StockReceived payload de stock.received.
type StockReceived struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reference string          `json:"reference"`
}

// OrderItem línea de un pedido.
type OrderItem struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// OrderPlaced payload de order.placed.
type OrderPlaced struct {
	OrderID string      `json:"orderId" validate:"required"`
	Items   []OrderItem `json:"items" validate:"required,min=1,dive"`
}

// StockAdjusted payload de stock.adjusted. Delta con signo.
type StockAdjusted struct {
	ProductID string          `json:"productId" validate:"required"`
	Delta     decimal.Decimal `json:"delta" validate:"ne=0"`
	Reason    string          `json:"reason" validate:"required"`
}

// MovementRecorded payload publicado como inventory.movement_recorded.
type MovementRecorded struct {
	MovementID     string          `json:"movementId"`
	InventoryID    string          `json:"inventoryId"`
	ProductID      string          `json:"productId"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	QuantityBefore decimal.Decimal `json:"quantityBefore"`
	QuantityAfter  decimal.Decimal `json:"quantityAfter"`
	Reason         string          `json:"reason,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	CreatedBy      string          `json:"createdBy,omitempty"`
}
