package entity

import (
	"encoding/json"
	"time"
)

// ProcessingResult resultado del procesamiento de un evento.
type ProcessingResult string

const (
	ResultSuccess ProcessingResult = "success"
	ResultFailure ProcessingResult = "failure"
)

// Valid indica si el resultado es uno de los valores admitidos por la tabla.
func (r ProcessingResult) Valid() bool {
	return r == ResultSuccess || r == ResultFailure
}

// ProcessedEvent registro de idempotencia: un evento externo ya visto por este servicio.
// EventID es único; un registro "failure" puede ser reemplazado por un reintento del mismo evento.
type ProcessedEvent struct {
	ID               string
	EventID          string
	EventType        string
	EventData        json.RawMessage // snapshot del payload, puede ser nil
	CreatedAt        time.Time       // primer intento
	ProcessingResult ProcessingResult
	ErrorMessage     *string
}

// EventFilter filtros para el historial de eventos procesados.
type EventFilter struct {
	EventType string
	Result    ProcessingResult
}

// Page resultado paginado genérico.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}
