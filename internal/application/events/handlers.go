// Package events contiene los handlers de dominio para los eventos consumidos desde Kafka.
// Cada handler recibe el ctx con la transacción abierta por el servicio de idempotencia.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-service/internal/application/idempotency"
	"github.com/jhoicas/inventory-service/internal/application/inventory"
	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
	"github.com/jhoicas/inventory-service/pkg/validation"
)

// Ledger subconjunto de inventory.LedgerUseCase que usan los handlers.
type Ledger interface {
	CreateInventory(ctx context.Context, productID, sku string, initial, price decimal.Decimal, currency, actor string) (*entity.Inventory, error)
	RecordMovement(ctx context.Context, input inventory.MovementInput) (*entity.InventoryMovement, error)
}

// Deps dependencias de los handlers.
type Deps struct {
	Ledger      Ledger
	Inventories repository.InventoryRepository
	Log         zerolog.Logger
}

type handlers struct {
	Deps
}

// NewRegistry construye la tabla de despacho tipo de evento → handler.
func NewRegistry(d Deps) map[string]idempotency.Handler {
	h := &handlers{Deps: d}
	return map[string]idempotency.Handler{
		entity.EventProductCreated:      h.productCreated,
		entity.EventProductPriceChanged: h.priceChanged,
		entity.EventStockReceived:       h.stockReceived,
		entity.EventOrderPlaced:         h.orderPlaced,
		entity.EventStockAdjusted:       h.stockAdjusted,
	}
}

func (h *handlers) productCreated(ctx context.Context, ev entity.Event) error {
	var p ProductCreated
	if err := decode(ev, &p); err != nil {
		return err
	}
	if _, err := h.Inventories.GetByProductID(ctx, p.ProductID); err == nil {
		h.Log.Info().Str("product_id", p.ProductID).Msg("inventario ya existe, product.created ignorado")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	_, err := h.Ledger.CreateInventory(ctx, p.ProductID, p.SKU, p.InitialQuantity, p.Price, p.Currency, actor(ev))
	return err
}

func (h *handlers) priceChanged(ctx context.Context, ev entity.Event) error {
	var p ProductPriceChanged
	if err := decode(ev, &p); err != nil {
		return err
	}
	return h.Inventories.UpdatePrice(ctx, p.ProductID, p.Price, p.Currency)
}

func (h *handlers) stockReceived(ctx context.Context, ev entity.Event) error {
	var p StockReceived
	if err := decode(ev, &p); err != nil {
		return err
	}
	inv, err := h.Inventories.GetByProductID(ctx, p.ProductID)
	if err != nil {
		return err
	}
	_, err = h.Ledger.RecordMovement(ctx, inventory.MovementInput{
		InventoryID: inv.ID,
		Type:        entity.MovementTypeIncrement,
		Quantity:    p.Quantity,
		Reason:      "recepción de mercancía",
		Reference:   p.Reference,
		Actor:       actor(ev),
		Metadata:    eventMetadata(ev),
	})
	return err
}

// orderPlaced descuenta todas las líneas en la misma transacción: si una no tiene stock
// suficiente, el pedido completo se revierte. Las líneas se procesan ordenadas por
// producto para que pedidos concurrentes tomen los locks de fila en el mismo orden.
func (h *handlers) orderPlaced(ctx context.Context, ev entity.Event) error {
	var p OrderPlaced
	if err := decode(ev, &p); err != nil {
		return err
	}
	meta := eventMetadata(ev)
	items := make([]OrderItem, len(p.Items))
	copy(items, p.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	for _, item := range items {
		inv, err := h.Inventories.GetByProductID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("pedido %s, producto %s: %w", p.OrderID, item.ProductID, err)
		}
		_, err = h.Ledger.RecordMovement(ctx, inventory.MovementInput{
			InventoryID: inv.ID,
			Type:        entity.MovementTypeDecrement,
			Quantity:    item.Quantity,
			Reason:      "venta",
			Reference:   p.OrderID,
			Actor:       actor(ev),
			Metadata:    meta,
		})
		if err != nil {
			return fmt.Errorf("pedido %s, producto %s: %w", p.OrderID, item.ProductID, err)
		}
	}
	return nil
}

func (h *handlers) stockAdjusted(ctx context.Context, ev entity.Event) error {
	var p StockAdjusted
	if err := decode(ev, &p); err != nil {
		return err
	}
	inv, err := h.Inventories.GetByProductID(ctx, p.ProductID)
	if err != nil {
		return err
	}
	_, err = h.Ledger.RecordMovement(ctx, inventory.MovementInput{
		InventoryID: inv.ID,
		Type:        entity.MovementTypeAdjustment,
		Quantity:    p.Delta,
		Reason:      p.Reason,
		Actor:       actor(ev),
		Metadata:    eventMetadata(ev),
	})
	return err
}

// decode payload malformado → ErrPoisonMessage; campos inválidos → ErrInvalidInput.
func decode(ev entity.Event, dst any) error {
	if len(bytes.TrimSpace(ev.Payload)) == 0 {
		return fmt.Errorf("%w: %s sin payload", domain.ErrPoisonMessage, ev.Type)
	}
	if err := json.Unmarshal(ev.Payload, dst); err != nil {
		return fmt.Errorf("%w: payload de %s: %v", domain.ErrPoisonMessage, ev.Type, err)
	}
	if err := validation.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, ev.Type, err)
	}
	return nil
}

func actor(ev entity.Event) string {
	if ev.Source != "" {
		return ev.Source
	}
	return "event:" + ev.Type
}

func eventMetadata(ev entity.Event) json.RawMessage {
	b, _ := json.Marshal(map[string]string{
		"eventId":   idempotency.GenerateEventID(ev),
		"eventType": ev.Type,
	})
	return b
}
