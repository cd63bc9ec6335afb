package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

// schemaSQL permite que el servicio cree sus tablas al arrancar.
//
//go:embed schema.sql
var schemaSQL string

// EnsureSchema aplica schema.sql. Es idempotente.
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
