package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

// EventHistoryQuery filtros de GET /api/events/processed.
type EventHistoryQuery struct {
	EventType string `query:"event_type" validate:"max=100"`
	Result    string `query:"result" validate:"omitempty,oneof=success failure"`
	Page      int    `query:"page" validate:"min=0"`
	Limit     int    `query:"limit" validate:"min=0"`
}

// ProcessedEventResponse registro de idempotencia.
type ProcessedEventResponse struct {
	ID               string          `json:"id"`
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventData        json.RawMessage `json:"event_data,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ProcessingResult string          `json:"processing_result"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
}

// EventHistoryResponse página del historial.
type EventHistoryResponse struct {
	Items []ProcessedEventResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}

// NewEventHistoryResponse convierte la página de entidades.
func NewEventHistoryResponse(p *entity.Page[entity.ProcessedEvent]) EventHistoryResponse {
	items := make([]ProcessedEventResponse, 0, len(p.Items))
	for _, e := range p.Items {
		items = append(items, ProcessedEventResponse{
			ID:               e.ID,
			EventID:          e.EventID,
			EventType:        e.EventType,
			EventData:        e.EventData,
			CreatedAt:        e.CreatedAt,
			ProcessingResult: string(e.ProcessingResult),
			ErrorMessage:     e.ErrorMessage,
		})
	}
	return EventHistoryResponse{
		Items: items,
		Page:  PageResponse{Limit: p.Limit, Page: p.Page, Total: p.Total},
	}
}

// CleanupRequest body para POST /api/events/cleanup. Days vacío usa la retención configurada.
type CleanupRequest struct {
	Days int `json:"days" validate:"min=0"`
}

// CleanupResponse resultado de la limpieza manual.
type CleanupResponse struct {
	RetentionDays int   `json:"retention_days"`
	Deleted       int64 `json:"deleted"`
}
