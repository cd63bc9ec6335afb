package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-service/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger        LedgerService
	Events        EventAuditService
	RetentionDays int
	JWTSecret     string
	Log           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Ledger de inventario
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Log)
	invGroup.Post("/:id/movements", RequireRole(jwt.RoleAdmin, jwt.RoleOperator), inventoryHandler.RecordMovement)
	invGroup.Get("/:id/movements", RequireRole(jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleAuditor), inventoryHandler.ListMovements)
	invGroup.Get("/:id/ledger/verify", RequireRole(jwt.RoleAdmin, jwt.RoleAuditor), inventoryHandler.VerifyLedger)

	// Eventos procesados (solo admin)
	events := protected.Group("/events", RequireRole(jwt.RoleAdmin))
	eventsHandler := NewEventsHandler(deps.Events, deps.RetentionDays, deps.Log)
	events.Get("/processed", eventsHandler.History)
	events.Post("/cleanup", eventsHandler.Cleanup)
}
