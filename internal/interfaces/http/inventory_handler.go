package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-service/internal/application/dto"
	"github.com/jhoicas/inventory-service/internal/application/inventory"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/pkg/validation"
)

// LedgerService operaciones del ledger expuestas por HTTP.
type LedgerService interface {
	RecordMovement(ctx context.Context, input inventory.MovementInput) (*entity.InventoryMovement, error)
	ListMovements(ctx context.Context, inventoryID string, limit, offset int) ([]*entity.InventoryMovement, error)
	VerifyLedger(ctx context.Context, inventoryID string) (*inventory.LedgerReport, error)
}

// InventoryHandler maneja las peticiones HTTP del ledger de inventario (protegido).
type InventoryHandler struct {
	ledger LedgerService
	log    zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger LedgerService, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, log: log}
}

// inventoryID devuelve el parámetro :id si es un UUID válido.
func inventoryID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	_, err := uuid.Parse(id)
	return id, err == nil
}

func invalidInventoryID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de inventario inválido"})
}

// RecordMovement POST /api/inventory/:id/movements
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	id, ok := inventoryID(c)
	if !ok {
		return invalidInventoryID(c)
	}
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validation.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	m, err := h.ledger.RecordMovement(c.Context(), inventory.MovementInput{
		InventoryID: id,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		Reference:   in.Reference,
		Actor:       GetUserID(c),
		Metadata:    in.Metadata,
	})
	if err != nil {
		if isInternal(err) {
			h.log.Error().Err(err).Str("inventory_id", id).Msg("registrar movimiento")
		}
		return writeError(c, err, "inventario no encontrado")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(m))
}

// ListMovements GET /api/inventory/:id/movements?limit=&offset=
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	id, ok := inventoryID(c)
	if !ok {
		return invalidInventoryID(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de paginación inválidos"})
	}
	if err := validation.Struct(page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	page.DefaultPage()
	movements, err := h.ledger.ListMovements(c.Context(), id, page.Limit, page.Offset)
	if err != nil {
		if isInternal(err) {
			h.log.Error().Err(err).Str("inventory_id", id).Msg("listar movimientos")
		}
		return writeError(c, err, "inventario no encontrado")
	}
	out := dto.MovementListResponse{
		Items: make([]dto.MovementResponse, 0, len(movements)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, m := range movements {
		out.Items = append(out.Items, dto.NewMovementResponse(m))
	}
	return c.JSON(out)
}

// VerifyLedger GET /api/inventory/:id/ledger/verify
func (h *InventoryHandler) VerifyLedger(c *fiber.Ctx) error {
	id, ok := inventoryID(c)
	if !ok {
		return invalidInventoryID(c)
	}
	report, err := h.ledger.VerifyLedger(c.Context(), id)
	if err != nil {
		if isInternal(err) {
			h.log.Error().Err(err).Str("inventory_id", id).Msg("verificar ledger")
		}
		return writeError(c, err, "inventario no encontrado")
	}
	return c.JSON(report)
}
