package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier es el subconjunto común de *pgxpool.Pool y pgx.Tx que usan los repositorios.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// txState transacción activa y callbacks pendientes de su Commit.
type txState struct {
	tx    pgx.Tx
	hooks []func(ctx context.Context)
}

// WithTx inyecta la transacción en el contexto.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, &txState{tx: tx})
}

// TxFromContext devuelve la transacción del contexto, si existe.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st.tx == nil {
		return nil, false
	}
	return st.tx, true
}

// AfterCommit difiere fn hasta el Commit de la transacción de ctx; si la tx se revierte, fn se descarta.
// Sin transacción en ctx, fn se ejecuta de inmediato.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.hooks = append(st.hooks, fn)
		return
	}
	fn(ctx)
}

func runHooks(ctx context.Context, txCtx context.Context) {
	st, ok := txCtx.Value(txKey{}).(*txState)
	if !ok {
		return
	}
	for _, fn := range st.hooks {
		fn(ctx)
	}
}

// resolve prefiere la transacción presente en ctx sobre el Querier del repositorio,
// así un repositorio construido con el pool participa de la tx abierta por el caller.
func resolve(ctx context.Context, q Querier) Querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return q
}
