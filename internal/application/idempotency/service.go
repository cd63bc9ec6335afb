package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
)

// Outcome resultado de ProcessEvent.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed" // el handler se ejecutó y se confirmó
	OutcomeSkipped   Outcome = "skipped"   // ya procesado antes (o por una entrega concurrente)
	OutcomeFailed    Outcome = "failed"    // el handler falló; quedó registrado como failure
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	// failureRecordTimeout acota la escritura del registro failure, que no depende del ctx del handler.
	failureRecordTimeout = 5 * time.Second
)

// HandlerError envuelve el error devuelto por el handler de dominio.
// El consumidor decide con él si el mensaje se reentrega o se descarta.
type HandlerError struct {
	EventID   string
	EventType string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s (%s): %v", e.EventType, e.EventID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// errClaimed se usa internamente para hacer Rollback cuando otra entrega ya registró el evento.
var errClaimed = errors.New("evento reclamado por otra entrega")

// Service garantiza ejecución a lo sumo una vez de un handler por evento externo.
// La restricción UNIQUE de processed_events.event_id es el único punto de serialización:
// el registro se inserta al inicio de la transacción del handler, de modo que una segunda
// entrega concurrente queda bloqueada en el índice hasta el Commit/Rollback de la primera.
type Service struct {
	store   repository.ProcessedEventRepository
	tx      Transactor
	cache   Cache
	metrics Recorder
	log     zerolog.Logger
	now     func() time.Time
}

// Option configura dependencias opcionales del servicio.
type Option func(*Service)

// WithCache agrega el atajo de Redis delante del almacén.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithRecorder registra métricas de resultados.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.metrics = r } }

// WithLogger asigna el logger del componente.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService construye el servicio de idempotencia.
func NewService(store repository.ProcessedEventRepository, tx Transactor, opts ...Option) *Service {
	s := &Service{
		store:   store,
		tx:      tx,
		metrics: nopRecorder{},
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateEventID ver función del paquete.
func (s *Service) GenerateEventID(event entity.Event) string {
	return GenerateEventID(event)
}

// ProcessEvent ejecuta handler a lo sumo una vez por event_id.
//
//  1. Deriva el event_id (GenerateEventID).
//  2. Si ya existe un registro "success" devuelve OutcomeSkipped sin invocar handler.
//  3. Abre transacción, reclama el event_id (insert "success") e invoca handler con el ctx de la tx.
//  4. Si el handler falla: Rollback, registra "failure" con el mensaje y devuelve *HandlerError.
//
// Un ErrDuplicateEvent al reclamar significa que otra entrega lo procesó: es éxito (skipped).
func (s *Service) ProcessEvent(ctx context.Context, event entity.Event, handler Handler) (Outcome, error) {
	if handler == nil || event.Type == "" {
		return "", domain.ErrInvalidInput
	}
	eventID := GenerateEventID(event)
	log := s.log.With().Str("event_id", eventID).Str("event_type", event.Type).Logger()

	if s.cacheHit(ctx, eventID) {
		log.Debug().Msg("evento ya procesado (cache)")
		s.metrics.ObserveEvent(event.Type, OutcomeSkipped)
		return OutcomeSkipped, nil
	}

	processed, err := s.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("consultar evento procesado: %w", err)
	}
	if processed {
		log.Debug().Msg("evento ya procesado, se omite")
		s.metrics.ObserveEvent(event.Type, OutcomeSkipped)
		return OutcomeSkipped, nil
	}

	startedAt := s.now()
	var handlerErr error
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		claim := s.newRecord(eventID, event, startedAt, entity.ResultSuccess, nil)
		if err := s.store.RecordProcessedEvent(txCtx, claim); err != nil {
			if errors.Is(err, domain.ErrDuplicateEvent) {
				return errClaimed
			}
			return err
		}
		if err := handler(txCtx, event); err != nil {
			handlerErr = err
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		s.markCache(ctx, eventID)
		s.metrics.ObserveEvent(event.Type, OutcomeProcessed)
		log.Info().Dur("elapsed", s.now().Sub(startedAt)).Msg("evento procesado")
		return OutcomeProcessed, nil
	case handlerErr != nil:
		s.recordFailure(ctx, eventID, event, startedAt, handlerErr)
		s.metrics.ObserveEvent(event.Type, OutcomeFailed)
		log.Warn().Err(handlerErr).Msg("handler falló, evento registrado como failure")
		return OutcomeFailed, &HandlerError{EventID: eventID, EventType: event.Type, Err: handlerErr}
	case errors.Is(err, errClaimed):
		log.Debug().Msg("evento procesado por una entrega concurrente")
		s.metrics.ObserveEvent(event.Type, OutcomeSkipped)
		return OutcomeSkipped, nil
	default:
		return "", fmt.Errorf("procesar evento %s: %w", eventID, err)
	}
}

// IsEventProcessed indica si eventID ya tiene un registro exitoso.
func (s *Service) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	if s.cacheHit(ctx, eventID) {
		return true, nil
	}
	return s.store.IsEventProcessed(ctx, eventID)
}

// GetEventHistory historial paginado (page desde 1), más reciente primero.
func (s *Service) GetEventHistory(ctx context.Context, filter entity.EventFilter, page, limit int) (*entity.Page[entity.ProcessedEvent], error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if filter.Result != "" && !filter.Result.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return s.store.GetEventHistory(ctx, filter, page, limit)
}

// CleanupOldEvents elimina registros con más de retentionDays días y devuelve cuántos borró.
func (s *Service) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, domain.ErrInvalidInput
	}
	olderThan := s.now().AddDate(0, 0, -retentionDays)
	deleted, err := s.store.CleanupOldEvents(ctx, olderThan)
	s.metrics.ObserveCleanup(deleted, err)
	if err != nil {
		return deleted, fmt.Errorf("limpiar eventos procesados: %w", err)
	}
	s.log.Info().
		Int("retention_days", retentionDays).
		Time("older_than", olderThan).
		Int64("deleted", deleted).
		Msg("limpieza de eventos procesados")
	return deleted, nil
}

func (s *Service) newRecord(eventID string, event entity.Event, at time.Time, result entity.ProcessingResult, errMsg *string) *entity.ProcessedEvent {
	var data json.RawMessage
	if len(event.Payload) > 0 && json.Valid(event.Payload) {
		data = event.Payload
	}
	return &entity.ProcessedEvent{
		EventID:          eventID,
		EventType:        event.Type,
		EventData:        data,
		CreatedAt:        at,
		ProcessingResult: result,
		ErrorMessage:     errMsg,
	}
}

// recordFailure fuera de la transacción revertida. Si mientras tanto otra entrega tuvo éxito,
// el almacén responde ErrDuplicateEvent y no hay nada que registrar.
// Usa un ctx desligado de ctx: si el handler falló por timeout o cancelación el fallo igual queda registrado.
func (s *Service) recordFailure(ctx context.Context, eventID string, event entity.Event, at time.Time, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
	defer cancel()
	msg := cause.Error()
	rec := s.newRecord(eventID, event, at, entity.ResultFailure, &msg)
	if err := s.store.RecordProcessedEvent(ctx, rec); err != nil && !errors.Is(err, domain.ErrDuplicateEvent) {
		s.log.Error().Err(err).Str("event_id", eventID).Msg("no se pudo registrar el fallo del evento")
	}
}

func (s *Service) cacheHit(ctx context.Context, eventID string) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Has(ctx, eventID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID).Msg("cache de idempotencia no disponible")
		return false
	}
	return ok
}

func (s *Service) markCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Mark(ctx, eventID); err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID).Msg("no se pudo marcar el evento en cache")
	}
}
