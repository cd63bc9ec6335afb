package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

const inventoryColumns = `id, product_id, sku, quantity, price, currency, created_at, updated_at`

// InventoryRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// Create inserta el registro de inventario. product_id es único.
func (r *InventoryRepo) Create(ctx context.Context, inv *entity.Inventory) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	query := `
		INSERT INTO inventory (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := resolve(ctx, r.q).Exec(ctx, query,
		inv.ID, inv.ProductID, inv.SKU, inv.Quantity, inv.Price, inv.Currency, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: inventario ya existe para el producto %s", domain.ErrInvalidInput, inv.ProductID)
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("create inventory: %w", err)
	}
	return nil
}

// GetByID obtiene un inventario por ID.
func (r *InventoryRepo) GetByID(ctx context.Context, id string) (*entity.Inventory, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id)
}

// GetByProductID obtiene el inventario de un producto.
func (r *InventoryRepo) GetByProductID(ctx context.Context, productID string) (*entity.Inventory, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE product_id = $1`, productID)
}

// GetForUpdate bloquea la fila hasta Commit/Rollback. Requiere transacción en ctx.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, id string) (*entity.Inventory, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1 FOR UPDATE`, id)
}

// UpdateQuantity fija la cantidad actual. La tabla rechaza valores negativos (CHECK).
func (r *InventoryRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	tag, err := resolve(ctx, r.q).Exec(ctx,
		`UPDATE inventory SET quantity = $2, updated_at = NOW() WHERE id = $1`, id, quantity)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update inventory quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePrice actualiza el último precio conocido del producto.
func (r *InventoryRepo) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal, currency string) error {
	tag, err := resolve(ctx, r.q).Exec(ctx,
		`UPDATE inventory SET price = $2, currency = $3, updated_at = NOW() WHERE product_id = $1`,
		productID, price, currency)
	if err != nil {
		return fmt.Errorf("update inventory price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InventoryRepo) getOne(ctx context.Context, query string, arg string) (*entity.Inventory, error) {
	var inv entity.Inventory
	err := resolve(ctx, r.q).QueryRow(ctx, query, arg).Scan(
		&inv.ID, &inv.ProductID, &inv.SKU, &inv.Quantity, &inv.Price, &inv.Currency, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: id de inventario", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &inv, nil
}
