package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Si el contexto ya trae una transacción (p. ej. la abierta por el servicio de idempotencia)
// se reutiliza: el Commit/Rollback queda a cargo de quien la abrió.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithinTransaction ejecuta fn con la tx inyectada en ctx y hace Commit o Rollback.
// Tras el Commit ejecuta los callbacks registrados con AfterCommit.
func (r *TxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txCtx := WithTx(ctx, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	runHooks(ctx, txCtx)
	return nil
}

// Run ejecuta fn con repositorios de inventario atados a la misma transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	inventoryRepo repository.InventoryRepository,
	movRepo repository.InventoryMovementRepository,
) error) error {
	return r.WithinTransaction(ctx, func(txCtx context.Context) error {
		tx, _ := TxFromContext(txCtx)
		return fn(txCtx, NewInventoryRepository(tx), NewInventoryMovementRepository(tx))
	})
}

// AfterCommit ver función del paquete.
func (r *TxRunner) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	AfterCommit(ctx, fn)
}
