package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrDuplicateEvent: el event_id ya tiene un registro exitoso en processed_events.
	ErrDuplicateEvent = errors.New("evento ya procesado")
	// ErrPoisonMessage: mensaje que nunca podrá procesarse (payload malformado).
	ErrPoisonMessage    = errors.New("mensaje envenenado")
	ErrUnknownEventType = errors.New("tipo de evento desconocido")
)

// IsPermanent indica si reintentar la operación nunca podrá tener éxito.
// El consumidor confirma (commit) estos mensajes en lugar de dejarlos para reentrega.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrPoisonMessage) ||
		errors.Is(err, ErrUnknownEventType)
}
