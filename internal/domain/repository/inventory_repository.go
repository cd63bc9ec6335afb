package repository

import (
	"context"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// InventoryRepository define el puerto de persistencia para Inventory.
// Usado dentro de transacciones para garantizar consistencia con el ledger.
type InventoryRepository interface {
	Create(ctx context.Context, inv *entity.Inventory) error
	GetByID(ctx context.Context, id string) (*entity.Inventory, error)
	GetByProductID(ctx context.Context, productID string) (*entity.Inventory, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Inventory, error)
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
	UpdatePrice(ctx context.Context, productID string, price decimal.Decimal, currency string) error
}
