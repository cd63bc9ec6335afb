package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
)

var _ repository.ProcessedEventRepository = (*ProcessedEventRepo)(nil)

// cleanupBatchSize filas por sentencia DELETE, para no retener locks largos.
const cleanupBatchSize = 1000

// ProcessedEventRepo almacén de idempotencia sobre la tabla processed_events.
type ProcessedEventRepo struct {
	q         Querier
	batchSize int
}

// NewProcessedEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProcessedEventRepository(q Querier) *ProcessedEventRepo {
	return &ProcessedEventRepo{q: q, batchSize: cleanupBatchSize}
}

// IsEventProcessed solo cuenta registros exitosos: un "failure" deja el evento disponible para reintento.
func (r *ProcessedEventRepo) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM processed_events WHERE event_id = $1 AND processing_result = 'success')`
	var exists bool
	if err := resolve(ctx, r.q).QueryRow(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("is event processed: %w", err)
	}
	return exists, nil
}

// RecordProcessedEvent inserta el registro o reemplaza uno "failure" previo (conservando created_at).
// Si ya existe un "success" el upsert no devuelve fila y se responde ErrDuplicateEvent.
func (r *ProcessedEventRepo) RecordProcessedEvent(ctx context.Context, ev *entity.ProcessedEvent) error {
	if ev == nil || ev.EventID == "" || ev.EventType == "" || !ev.ProcessingResult.Valid() {
		return domain.ErrInvalidInput
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO processed_events (id, event_id, event_type, event_data, created_at, processing_result, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO UPDATE SET
			event_type = EXCLUDED.event_type,
			event_data = EXCLUDED.event_data,
			processing_result = EXCLUDED.processing_result,
			error_message = EXCLUDED.error_message
		WHERE processed_events.processing_result = 'failure'
		RETURNING id, created_at`
	err := resolve(ctx, r.q).QueryRow(ctx, query,
		ev.ID, ev.EventID, ev.EventType, jsonOrNull(ev.EventData),
		ev.CreatedAt.UTC(), string(ev.ProcessingResult), ev.ErrorMessage,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrDuplicateEvent
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("record processed event: %w", err)
	}
	return nil
}

// GetEventHistory lista registros del más reciente al más antiguo con filtros opcionales.
func (r *ProcessedEventRepo) GetEventHistory(ctx context.Context, filter entity.EventFilter, page, limit int) (*entity.Page[entity.ProcessedEvent], error) {
	var where []string
	var args []any
	if filter.EventType != "" {
		args = append(args, filter.EventType)
		where = append(where, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if filter.Result != "" {
		args = append(args, string(filter.Result))
		where = append(where, fmt.Sprintf("processing_result = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	q := resolve(ctx, r.q)
	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM processed_events"+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count processed events: %w", err)
	}

	listArgs := append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`
		SELECT id, event_id, event_type, event_data, created_at, processing_result, error_message
		FROM processed_events%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, cond, len(args)+1, len(args)+2)
	rows, err := q.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("list processed events: %w", err)
	}
	defer rows.Close()

	items := make([]entity.ProcessedEvent, 0, limit)
	for rows.Next() {
		var ev entity.ProcessedEvent
		var result string
		var data []byte
		if err := rows.Scan(&ev.ID, &ev.EventID, &ev.EventType, &data, &ev.CreatedAt, &result, &ev.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan processed event: %w", err)
		}
		ev.EventData = data
		ev.ProcessingResult = entity.ProcessingResult(result)
		items = append(items, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed events: %w", err)
	}
	return &entity.Page[entity.ProcessedEvent]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// CleanupOldEvents borra por lotes; SKIP LOCKED evita esperar filas tomadas por un handler en curso.
// Entre lotes se respeta la cancelación de ctx y se devuelve lo borrado hasta ese punto.
func (r *ProcessedEventRepo) CleanupOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		WITH doomed AS (
			SELECT id FROM processed_events
			WHERE created_at < $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		DELETE FROM processed_events pe USING doomed WHERE pe.id = doomed.id`

	var deleted int64
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		tag, err := resolve(ctx, r.q).Exec(ctx, query, olderThan.UTC(), r.batchSize)
		if err != nil {
			return deleted, fmt.Errorf("cleanup processed events: %w", err)
		}
		deleted += tag.RowsAffected()
		if tag.RowsAffected() < int64(r.batchSize) {
			return deleted, nil
		}
	}
}

// CountByEventID número de filas para eventID (0 o 1 por la restricción UNIQUE).
func (r *ProcessedEventRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var n int
	err := resolve(ctx, r.q).QueryRow(ctx, `SELECT COUNT(*) FROM processed_events WHERE event_id = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by event id: %w", err)
	}
	return n, nil
}
