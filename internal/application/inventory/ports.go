package inventory

import (
	"context"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si ctx ya trae una transacción abierta, se une a ella. Garantiza atomicidad para el ledger.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		inventoryRepo repository.InventoryRepository,
		movRepo repository.InventoryMovementRepository,
	) error) error
	// AfterCommit difiere fn hasta que la transacción de ctx (propia o externa) se confirme.
	AfterCommit(ctx context.Context, fn func(ctx context.Context))
}

// MovementPublisher publica el movimiento ya confirmado hacia otros servicios.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, inv *entity.Inventory, m *entity.InventoryMovement) error
}
