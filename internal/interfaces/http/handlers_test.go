package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-service/internal/application/dto"
	"github.com/jhoicas/inventory-service/internal/application/inventory"
	"github.com/jhoicas/inventory-service/internal/domain"
	"github.com/jhoicas/inventory-service/internal/domain/entity"
	apphttp "github.com/jhoicas/inventory-service/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventory-service/pkg/jwt"
)

const (
	invID        = "6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"
	otherInvID   = "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
	missingInvID = "00000000-0000-4000-8000-000000000000"
)

type fakeLedger struct {
	lastInput  inventory.MovementInput
	recordErr  error
	listErr    error
	listLimit  int
	listOffset int
	report     *inventory.LedgerReport
}

func (f *fakeLedger) RecordMovement(_ context.Context, in inventory.MovementInput) (*entity.InventoryMovement, error) {
	f.lastInput = in
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return &entity.InventoryMovement{
		ID:             "mov-1",
		Sequence:       1,
		InventoryID:    in.InventoryID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		QuantityBefore: decimal.NewFromInt(10),
		QuantityAfter:  decimal.NewFromInt(10).Add(in.Quantity),
		CreatedBy:      in.Actor,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeLedger) ListMovements(_ context.Context, id string, limit, offset int) ([]*entity.InventoryMovement, error) {
	f.listLimit, f.listOffset = limit, offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []*entity.InventoryMovement{
		{ID: "mov-2", Sequence: 2, InventoryID: id, Type: entity.MovementTypeDecrement},
		{ID: "mov-1", Sequence: 1, InventoryID: id, Type: entity.MovementTypeIncrement},
	}, nil
}

func (f *fakeLedger) VerifyLedger(_ context.Context, id string) (*inventory.LedgerReport, error) {
	if f.report == nil {
		return nil, domain.ErrNotFound
	}
	f.report.InventoryID = id
	return f.report, nil
}

type fakeEvents struct {
	filter   entity.EventFilter
	page     int
	limit    int
	days     int
	deleted  int64
	cleanErr error
}

func (f *fakeEvents) GetEventHistory(_ context.Context, filter entity.EventFilter, page, limit int) (*entity.Page[entity.ProcessedEvent], error) {
	f.filter, f.page, f.limit = filter, page, limit
	if filter.Result != "" && !filter.Result.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return &entity.Page[entity.ProcessedEvent]{
		Items: []entity.ProcessedEvent{{ID: "1", EventID: "evt-1", EventType: entity.EventStockReceived, ProcessingResult: entity.ResultSuccess}},
		Total: 1, Page: 1, Limit: 20,
	}, nil
}

func (f *fakeEvents) CleanupOldEvents(_ context.Context, days int) (int64, error) {
	f.days = days
	if f.cleanErr != nil {
		return 0, f.cleanErr
	}
	return f.deleted, nil
}

func newAPI(ledger apphttp.LedgerService, events apphttp.EventAuditService) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:        ledger,
		Events:        events,
		RetentionDays: 30,
		JWTSecret:     testJWTSecret,
		Log:           zerolog.Nop(),
	})
	return app
}

func send(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestRecordMovement_Creado(t *testing.T) {
	ledger := &fakeLedger{}
	app := newAPI(ledger, &fakeEvents{})

	resp := send(t, app, http.MethodPost, "/api/inventory/"+invID+"/movements", pkgjwt.RoleOperator,
		map[string]any{"type": "increment", "quantity": "5", "reason": "recepción", "reference": "PO-1"})
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body dto.MovementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, invID, body.InventoryID)
	assert.True(t, body.QuantityAfter.Equal(decimal.NewFromInt(15)))

	assert.Equal(t, invID, ledger.lastInput.InventoryID)
	assert.Equal(t, testUserID, ledger.lastInput.Actor)
	assert.Equal(t, "PO-1", ledger.lastInput.Reference)
}

func TestRecordMovement_ErroresDeDominio(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"stock insuficiente", domain.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"no encontrado", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"entrada inválida", fmt.Errorf("%w: cantidad", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION"},
		{"interno", fmt.Errorf("conexión perdida"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newAPI(&fakeLedger{recordErr: tc.err}, &fakeEvents{})
			resp := send(t, app, http.MethodPost, "/api/inventory/"+invID+"/movements", pkgjwt.RoleAdmin,
				map[string]any{"type": "decrement", "quantity": 15})
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp).Code)
		})
	}
}

func TestRecordMovement_ValidacionDelCuerpo(t *testing.T) {
	ledger := &fakeLedger{}
	app := newAPI(ledger, &fakeEvents{})

	resp := send(t, app, http.MethodPost, "/api/inventory/"+invID+"/movements", pkgjwt.RoleOperator,
		map[string]any{"type": "transfer", "quantity": 1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)

	resp2 := send(t, app, http.MethodPost, "/api/inventory/"+invID+"/movements", pkgjwt.RoleOperator,
		map[string]any{"type": "adjustment", "quantity": 0})
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	assert.Empty(t, ledger.lastInput.InventoryID, "el ledger no debe invocarse con un cuerpo inválido")
}

func TestRecordMovement_AuditorNoPuedeEscribir(t *testing.T) {
	app := newAPI(&fakeLedger{}, &fakeEvents{})
	resp := send(t, app, http.MethodPost, "/api/inventory/"+invID+"/movements", pkgjwt.RoleAuditor,
		map[string]any{"type": "increment", "quantity": 1})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListMovements_Paginacion(t *testing.T) {
	ledger := &fakeLedger{}
	app := newAPI(ledger, &fakeEvents{})

	resp := send(t, app, http.MethodGet, "/api/inventory/"+invID+"/movements?limit=2&offset=4", pkgjwt.RoleAuditor, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.MovementListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "mov-2", body.Items[0].ID)
	assert.Equal(t, 2, ledger.listLimit)
	assert.Equal(t, 4, ledger.listOffset)
}

func TestListMovements_LimiteFueraDeRango(t *testing.T) {
	app := newAPI(&fakeLedger{}, &fakeEvents{})
	resp := send(t, app, http.MethodGet, "/api/inventory/"+invID+"/movements?limit=1000", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyLedger(t *testing.T) {
	report := &inventory.LedgerReport{Movements: 3, Consistent: true, ReconstructedQty: decimal.NewFromInt(7), CurrentQty: decimal.NewFromInt(7)}
	app := newAPI(&fakeLedger{report: report}, &fakeEvents{})

	resp := send(t, app, http.MethodGet, "/api/inventory/"+otherInvID+"/ledger/verify", pkgjwt.RoleAuditor, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, otherInvID, body["inventoryId"])
	assert.Equal(t, true, body["consistent"])
}

func TestVerifyLedger_NoEncontrado(t *testing.T) {
	app := newAPI(&fakeLedger{}, &fakeEvents{})
	resp := send(t, app, http.MethodGet, "/api/inventory/"+missingInvID+"/ledger/verify", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInventoryRoutes_IDNoUUIDEsValidacion(t *testing.T) {
	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/inventory/inv-1/movements", map[string]any{"type": "increment", "quantity": 1}},
		{http.MethodGet, "/api/inventory/inv-1/movements", nil},
		{http.MethodGet, "/api/inventory/nope/ledger/verify", nil},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			ledger := &fakeLedger{}
			app := newAPI(ledger, &fakeEvents{})
			resp := send(t, app, tc.method, tc.path, pkgjwt.RoleAdmin, tc.body)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
			assert.Empty(t, ledger.lastInput.InventoryID)
			assert.Zero(t, ledger.listLimit)
		})
	}
}

func TestEventsHistory_Filtros(t *testing.T) {
	events := &fakeEvents{}
	app := newAPI(&fakeLedger{}, events)

	resp := send(t, app, http.MethodGet, "/api/events/processed?event_type=stock.received&result=success&page=2&limit=10", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.EventStockReceived, events.filter.EventType)
	assert.Equal(t, entity.ResultSuccess, events.filter.Result)
	assert.Equal(t, 2, events.page)
	assert.Equal(t, 10, events.limit)

	var body dto.EventHistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "evt-1", body.Items[0].EventID)
	assert.Equal(t, int64(1), body.Page.Total)
}

func TestEventsHistory_ResultadoInvalido(t *testing.T) {
	app := newAPI(&fakeLedger{}, &fakeEvents{})
	resp := send(t, app, http.MethodGet, "/api/events/processed?result=pending", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventsHistory_SoloAdmin(t *testing.T) {
	app := newAPI(&fakeLedger{}, &fakeEvents{})
	resp := send(t, app, http.MethodGet, "/api/events/processed", pkgjwt.RoleOperator, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEventsCleanup_RetencionPorDefecto(t *testing.T) {
	events := &fakeEvents{deleted: 4}
	app := newAPI(&fakeLedger{}, events)

	resp := send(t, app, http.MethodPost, "/api/events/cleanup", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 30, events.days)
	var body dto.CleanupResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(4), body.Deleted)
	assert.Equal(t, 30, body.RetentionDays)
}

func TestEventsCleanup_DiasExplicitos(t *testing.T) {
	events := &fakeEvents{deleted: 1}
	app := newAPI(&fakeLedger{}, events)

	resp := send(t, app, http.MethodPost, "/api/events/cleanup", pkgjwt.RoleAdmin, map[string]int{"days": 7})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7, events.days)
}

func TestEventsCleanup_DiasNegativos(t *testing.T) {
	app := newAPI(&fakeLedger{}, &fakeEvents{})
	resp := send(t, app, http.MethodPost, "/api/events/cleanup", pkgjwt.RoleAdmin, map[string]int{"days": -1})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
