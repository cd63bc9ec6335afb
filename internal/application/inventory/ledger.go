package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	"github.com/jhoicas/inventory-service/internal/domain/repository"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
)

// LedgerUseCase registra movimientos de inventario de forma transaccional: bloquea la fila
// (SELECT FOR UPDATE), calcula la cantidad resultante, actualiza Inventory y agrega el movimiento.
type LedgerUseCase struct {
	txRunner      TxRunner
	inventoryRepo repository.InventoryRepository
	movementRepo  repository.InventoryMovementRepository
	publisher     MovementPublisher
	log           zerolog.Logger
}

// NewLedgerUseCase construye el caso de uso. publisher puede ser nil.
func NewLedgerUseCase(
	txRunner TxRunner,
	inventoryRepo repository.InventoryRepository,
	movementRepo repository.InventoryMovementRepository,
	publisher MovementPublisher,
	log zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:      txRunner,
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		publisher:     publisher,
		log:           log,
	}
}

// MovementInput cambio de cantidad propuesto.
// Para increment/decrement Quantity es la magnitud (> 0); para adjustment es el delta con signo (≠ 0).
type MovementInput struct {
	InventoryID string
	Type        string
	Quantity    decimal.Decimal
	Reason      string
	Reference   string
	Actor       string
	Metadata    json.RawMessage
}

// delta convierte la entrada en el cambio con signo a aplicar.
func (in MovementInput) delta() (decimal.Decimal, error) {
	if strings.TrimSpace(in.InventoryID) == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	if len(in.Metadata) > 0 && !json.Valid(in.Metadata) {
		return decimal.Zero, fmt.Errorf("%w: metadata no es JSON válido", domain.ErrInvalidInput)
	}
	switch in.Type {
	case entity.MovementTypeIncrement:
		if !in.Quantity.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
		}
		return in.Quantity, nil
	case entity.MovementTypeDecrement:
		if !in.Quantity.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
		}
		return in.Quantity.Neg(), nil
	case entity.MovementTypeAdjustment:
		if in.Quantity.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidInput)
		}
		return in.Quantity, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
}

// RecordMovement aplica el movimiento y devuelve el registro del ledger.
// Si la cantidad quedaría negativa devuelve domain.ErrInsufficientStock y no persiste nada.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, input MovementInput) (*entity.InventoryMovement, error) {
	delta, err := input.delta()
	if err != nil {
		return nil, err
	}

	var movement *entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(ctx context.Context, invRepo repository.InventoryRepository, movRepo repository.InventoryMovementRepository) error {
		inv, err := invRepo.GetForUpdate(ctx, input.InventoryID)
		if err != nil {
			return err
		}
		movement, err = appendMovement(ctx, invRepo, movRepo, inv, input, delta)
		if err != nil {
			return err
		}
		// Publicar solo lo confirmado: dentro de un evento el commit lo hace el servicio de idempotencia.
		snapshot := *inv
		uc.txRunner.AfterCommit(ctx, func(ctx context.Context) { uc.publish(ctx, &snapshot, movement) })
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("inventory_id", movement.InventoryID).
		Str("type", movement.Type).
		Str("quantity", movement.Quantity.String()).
		Str("quantity_after", movement.QuantityAfter.String()).
		Msg("movimiento registrado")
	return movement, nil
}

// CreateInventory crea el inventario del producto y, si initial > 0, el movimiento de apertura.
func (uc *LedgerUseCase) CreateInventory(ctx context.Context, productID, sku string, initial decimal.Decimal, price decimal.Decimal, currency, actor string) (*entity.Inventory, error) {
	if strings.TrimSpace(productID) == "" || initial.IsNegative() || price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	inv := &entity.Inventory{
		ProductID: productID,
		SKU:       sku,
		Quantity:  decimal.Zero,
		Price:     price,
		Currency:  currency,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, invRepo repository.InventoryRepository, movRepo repository.InventoryMovementRepository) error {
		if err := invRepo.Create(ctx, inv); err != nil {
			return err
		}
		if !initial.IsPositive() {
			return nil
		}
		opening, err := appendMovement(ctx, invRepo, movRepo, inv, MovementInput{
			InventoryID: inv.ID,
			Type:        entity.MovementTypeIncrement,
			Quantity:    initial,
			Reason:      "inventario inicial",
			Reference:   productID,
			Actor:       actor,
		}, initial)
		if err != nil {
			return err
		}
		snapshot := *inv
		uc.txRunner.AfterCommit(ctx, func(ctx context.Context) { uc.publish(ctx, &snapshot, opening) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("inventory_id", inv.ID).Str("product_id", productID).Str("quantity", inv.Quantity.String()).Msg("inventario creado")
	return inv, nil
}

// ListMovements historial de auditoría, del más reciente al más antiguo.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, inventoryID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	if strings.TrimSpace(inventoryID) == "" || offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}
	if _, err := uc.inventoryRepo.GetByID(ctx, inventoryID); err != nil {
		return nil, err
	}
	return uc.movementRepo.ListByInventory(ctx, inventoryID, limit, offset)
}

// LedgerIssue inconsistencia encontrada al recorrer el ledger.
type LedgerIssue struct {
	MovementID string `json:"movementId"`
	Sequence   int64  `json:"sequence"`
	Problem    string `json:"problem"`
}

// LedgerReport resultado de VerifyLedger.
type LedgerReport struct {
	InventoryID      string          `json:"inventoryId"`
	Movements        int             `json:"movements"`
	ReconstructedQty decimal.Decimal `json:"reconstructedQuantity"`
	CurrentQty       decimal.Decimal `json:"currentQuantity"`
	Consistent       bool            `json:"consistent"`
	Issues           []LedgerIssue   `json:"issues,omitempty"`
	VerifiedAt       time.Time       `json:"verifiedAt"`
}

// VerifyLedger recorre los movimientos en orden de aplicación y comprueba que cada uno parta
// de la cantidad resultante del anterior, que cumpla after = before + quantity con after >= 0,
// y que el último coincida con la cantidad actual del inventario.
func (uc *LedgerUseCase) VerifyLedger(ctx context.Context, inventoryID string) (*LedgerReport, error) {
	inv, err := uc.inventoryRepo.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	movements, err := uc.movementRepo.ListAllByInventoryAsc(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	report := FoldLedger(movements)
	report.InventoryID = inventoryID
	report.CurrentQty = inv.Quantity
	if !report.ReconstructedQty.Equal(inv.Quantity) {
		report.Issues = append(report.Issues, LedgerIssue{
			Problem: fmt.Sprintf("cantidad actual %s no coincide con el ledger %s", inv.Quantity, report.ReconstructedQty),
		})
	}
	report.Consistent = len(report.Issues) == 0
	report.VerifiedAt = time.Now()
	if !report.Consistent {
		uc.log.Warn().Str("inventory_id", inventoryID).Int("issues", len(report.Issues)).Msg("ledger inconsistente")
	}
	return report, nil
}

// FoldLedger reconstruye la cantidad a partir de movimientos ordenados por aplicación.
// El ledger parte de cero.
func FoldLedger(movements []*entity.InventoryMovement) *LedgerReport {
	report := &LedgerReport{Movements: len(movements), ReconstructedQty: decimal.Zero}
	running := decimal.Zero
	for _, m := range movements {
		if !m.QuantityBefore.Equal(running) {
			report.Issues = append(report.Issues, LedgerIssue{
				MovementID: m.ID, Sequence: m.Sequence,
				Problem: fmt.Sprintf("hueco: before %s, esperado %s", m.QuantityBefore, running),
			})
		}
		if !m.QuantityBefore.Add(m.Quantity).Equal(m.QuantityAfter) {
			report.Issues = append(report.Issues, LedgerIssue{
				MovementID: m.ID, Sequence: m.Sequence,
				Problem: "after distinto de before + quantity",
			})
		}
		if m.QuantityAfter.IsNegative() {
			report.Issues = append(report.Issues, LedgerIssue{
				MovementID: m.ID, Sequence: m.Sequence,
				Problem: "cantidad negativa",
			})
		}
		running = m.QuantityAfter
	}
	report.ReconstructedQty = running
	report.Consistent = len(report.Issues) == 0
	return report
}

// appendMovement aplica delta sobre inv (ya bloqueado) y agrega el movimiento. Debe correr en tx.
func appendMovement(
	ctx context.Context,
	invRepo repository.InventoryRepository,
	movRepo repository.InventoryMovementRepository,
	inv *entity.Inventory,
	input MovementInput,
	delta decimal.Decimal,
) (*entity.InventoryMovement, error) {
	before := inv.Quantity
	after := before.Add(delta)
	if after.IsNegative() {
		return nil, fmt.Errorf("%w: disponible %s, solicitado %s", domain.ErrInsufficientStock, before, delta.Abs())
	}
	if err := invRepo.UpdateQuantity(ctx, inv.ID, after); err != nil {
		return nil, err
	}
	m := &entity.InventoryMovement{
		InventoryID:    inv.ID,
		Type:           input.Type,
		Quantity:       delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         input.Reason,
		Reference:      input.Reference,
		Metadata:       input.Metadata,
		CreatedBy:      input.Actor,
	}
	if err := movRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	inv.Quantity = after
	return m, nil
}

func (uc *LedgerUseCase) publish(ctx context.Context, inv *entity.Inventory, m *entity.InventoryMovement) {
	if uc.publisher == nil || m == nil {
		return
	}
	if err := uc.publisher.PublishMovement(ctx, inv, m); err != nil {
		uc.log.Warn().Err(err).Str("movement_id", m.ID).Msg("no se pudo publicar el movimiento")
	}
}
