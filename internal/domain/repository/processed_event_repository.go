package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

// ProcessedEventRepository define el puerto del almacén de idempotencia (tabla processed_events).
// Todas las operaciones participan de la transacción presente en ctx, si existe.
type ProcessedEventRepository interface {
	// IsEventProcessed devuelve true solo si existe un registro "success" para eventID.
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	// RecordProcessedEvent inserta el registro. Devuelve domain.ErrDuplicateEvent si ya hay un
	// registro "success"; un registro "failure" previo se reemplaza (reintento idempotente).
	RecordProcessedEvent(ctx context.Context, event *entity.ProcessedEvent) error
	GetEventHistory(ctx context.Context, filter entity.EventFilter, page, limit int) (*entity.Page[entity.ProcessedEvent], error)
	// CleanupOldEvents borra registros con created_at < olderThan y devuelve cuántos eliminó.
	CleanupOldEvents(ctx context.Context, olderThan time.Time) (int64, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}
