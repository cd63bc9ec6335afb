package idempotency

import (
	"context"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

// Handler procesa un evento de dominio. ctx lleva la transacción de BD abierta por ProcessEvent;
// los repositorios que la usen quedan atados al mismo Commit/Rollback que el registro de idempotencia.
type Handler func(ctx context.Context, event entity.Event) error

// Transactor ejecuta fn dentro de una transacción de BD inyectada en el contexto.
// Si fn devuelve error se hace Rollback; si no, Commit.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache atajo opcional (Redis) delante del almacén. Solo guarda eventos exitosos;
// sus errores nunca bloquean el procesamiento.
type Cache interface {
	Has(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Recorder métricas del servicio de idempotencia.
type Recorder interface {
	ObserveEvent(eventType string, outcome Outcome)
	ObserveCleanup(deleted int64, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvent(string, Outcome) {}
func (nopRecorder) ObserveCleanup(int64, error)  {}
