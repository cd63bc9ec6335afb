package repository

import (
	"context"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia del ledger (solo inserción y lectura).
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	// ListByInventory ordena por created_at DESC (auditoría).
	ListByInventory(ctx context.Context, inventoryID string, limit, offset int) ([]*entity.InventoryMovement, error)
	// ListAllByInventoryAsc devuelve el ledger completo en orden de aplicación.
	ListAllByInventoryAsc(ctx context.Context, inventoryID string) ([]*entity.InventoryMovement, error)
}
