package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, sequence, inventory_id, type, quantity, quantity_before, quantity_after,
	reason, reference, metadata, created_at, created_by`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// La tabla solo admite INSERT: un trigger rechaza UPDATE y DELETE.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento y completa Sequence y CreatedAt asignados por la BD.
// created_at sale de clock_timestamp() del servidor mientras la fila de inventario está bloqueada,
// así el orden por created_at coincide con el orden de aplicación sin depender del reloj de cada instancia.
func (r *InventoryMovementRepo) Create(ctx context.Context, movement *entity.InventoryMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (id, inventory_id, type, quantity, quantity_before, quantity_after,
			reason, reference, metadata, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, clock_timestamp(), $10)
		RETURNING sequence, created_at`
	err := resolve(ctx, r.q).QueryRow(ctx, query,
		movement.ID, movement.InventoryID, movement.Type, movement.Quantity,
		movement.QuantityBefore, movement.QuantityAfter,
		nullIfEmpty(movement.Reason), nullIfEmpty(movement.Reference), jsonOrNull(movement.Metadata),
		nullIfEmpty(movement.CreatedBy),
	).Scan(&movement.Sequence, &movement.CreatedAt)
	if err != nil {
		switch {
		case isCheckViolation(err):
			return fmt.Errorf("%w: movimiento inconsistente", domain.ErrInvalidInput)
		case isForeignKeyViolation(err):
			return domain.ErrNotFound
		case isInvalidText(err):
			return fmt.Errorf("%w: id de inventario", domain.ErrInvalidInput)
		}
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	row := resolve(ctx, r.q).QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: id de movimiento", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByInventory movimientos del más reciente al más antiguo.
func (r *InventoryMovementRepo) ListByInventory(ctx context.Context, inventoryID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE inventory_id = $1
		ORDER BY created_at DESC, sequence DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, inventoryID, limit, offset)
}

// ListAllByInventoryAsc ledger completo en orden de aplicación (created_at, sequence como desempate).
func (r *InventoryMovementRepo) ListAllByInventoryAsc(ctx context.Context, inventoryID string) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE inventory_id = $1
		ORDER BY created_at ASC, sequence ASC`
	return r.list(ctx, query, inventoryID)
}

func (r *InventoryMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := resolve(ctx, r.q).Query(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: id de inventario", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: id de inventario", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return list, nil
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var reason, reference, createdBy *string
	var metadata []byte
	err := row.Scan(
		&m.ID, &m.Sequence, &m.InventoryID, &m.Type, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
		&reason, &reference, &metadata, &m.CreatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	if reason != nil {
		m.Reason = *reason
	}
	if reference != nil {
		m.Reference = *reference
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	m.Metadata = metadata
	return &m, nil
}
