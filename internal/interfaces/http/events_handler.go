package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-service/internal/application/dto"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/pkg/validation"
)

// EventAuditService consulta y mantenimiento del almacén de idempotencia.
type EventAuditService interface {
	GetEventHistory(ctx context.Context, filter entity.EventFilter, page, limit int) (*entity.Page[entity.ProcessedEvent], error)
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}

// EventsHandler endpoints administrativos de eventos procesados.
type EventsHandler struct {
	svc           EventAuditService
	retentionDays int
	log           zerolog.Logger
}

// NewEventsHandler construye el handler. retentionDays se usa cuando la petición no indica días.
func NewEventsHandler(svc EventAuditService, retentionDays int, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{svc: svc, retentionDays: retentionDays, log: log}
}

// History GET /api/events/processed?event_type=&result=&page=&limit=
func (h *EventsHandler) History(c *fiber.Ctx) error {
	var q dto.EventHistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	if err := validation.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	filter := entity.EventFilter{EventType: q.EventType, Result: entity.ProcessingResult(q.Result)}
	page, err := h.svc.GetEventHistory(c.Context(), filter, q.Page, q.Limit)
	if err != nil {
		if isInternal(err) {
			h.log.Error().Err(err).Msg("historial de eventos")
		}
		return writeError(c, err, "sin resultados")
	}
	return c.JSON(dto.NewEventHistoryResponse(page))
}

// Cleanup POST /api/events/cleanup
func (h *EventsHandler) Cleanup(c *fiber.Ctx) error {
	var in dto.CleanupRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	if err := validation.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	days := in.Days
	if days == 0 {
		days = h.retentionDays
	}
	deleted, err := h.svc.CleanupOldEvents(c.Context(), days)
	if err != nil {
		if isInternal(err) {
			h.log.Error().Err(err).Int("retention_days", days).Msg("limpieza manual de eventos")
		}
		return writeError(c, err, "")
	}
	h.log.Info().Str("user_id", GetUserID(c)).Int("retention_days", days).Int64("deleted", deleted).Msg("limpieza manual de eventos")
	return c.JSON(dto.CleanupResponse{RetentionDays: days, Deleted: deleted})
}
