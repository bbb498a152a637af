package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/application/count"
	"github.com/jhoicas/erp-fulfillment/internal/application/dto"
	"github.com/jhoicas/erp-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/erp-fulfillment/internal/application/inventory"
	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/application/usecase"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/lock"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/erp-fulfillment/internal/interfaces/http"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// newAPI arma la API completa sobre el store en memoria.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.New()
	l := ledger.New(store, lock.NewLocal(time.Second), nil, logger.Nop(), ledger.Options{DefaultLocation: "MAIN"})
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Items:         usecase.NewItemUseCase(l),
		Ledger:        l,
		Replenishment: inventory.NewReplenishmentUseCase(l),
		Orders:        fulfillment.NewService(l, ledger.NewAllocationEngine(l), lock.NewLocal(time.Second), logger.Nop()),
		Counts:        count.NewReconciler(l, lock.NewLocal(time.Second), decimal.NewFromInt(5), logger.Nop()),
		JWTSecret:     testJWTSecret,
	})
	return app
}

// call envía body como JSON con el rol indicado y decodifica la respuesta en out (si no es nil).
func call(t *testing.T, app *fiber.App, role, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createItem(t *testing.T, app *fiber.App, sku string) string {
	t.Helper()
	var item dto.ItemResponse
	status := call(t, app, apphttp.RoleAdmin, http.MethodPost, "/api/items", fiber.Map{"sku": sku, "name": sku}, &item)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, item.ID)
	return item.ID
}

func receive(t *testing.T, app *fiber.App, itemID, qty string) {
	t.Helper()
	status := call(t, app, apphttp.RoleWarehouse, http.MethodPost, "/api/inventory/receipts", fiber.Map{
		"item_id": itemID, "quantity": qty, "unit_cost": "10", "reference_id": "PO-1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
}

func TestAPI_RecepcionSoloBodegaOAdmin(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app, "SKU-1")

	var errBody dto.ErrorResponse
	status := call(t, app, apphttp.RoleSales, http.MethodPost, "/api/inventory/receipts", fiber.Map{
		"item_id": itemID, "quantity": "10", "unit_cost": "10", "reference_id": "PO-1",
	}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errBody.Code)

	receive(t, app, itemID, "10")

	var snap dto.SnapshotResponse
	status = call(t, app, apphttp.RoleSales, http.MethodGet, "/api/inventory/items/"+itemID+"/snapshot", nil, &snap)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, snap.Available.Equal(decimal.NewFromInt(10)))
	assert.True(t, snap.Value.Equal(decimal.NewFromInt(100)))
}

func TestAPI_PedidoSinClienteRetorna400(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app, "SKU-1")

	var errBody dto.ErrorResponse
	status := call(t, app, apphttp.RoleSales, http.MethodPost, "/api/orders", fiber.Map{
		"lines": []fiber.Map{{"item_id": itemID, "quantity": "1", "unit_price": "5"}},
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errBody.Code)
	assert.Contains(t, errBody.Message, "CustomerID")
}

func TestAPI_DespachoSuperiorALoReservadoRetornaDetalle(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app, "SKU-1")
	receive(t, app, itemID, "10")

	var order dto.OrderResponse
	status := call(t, app, apphttp.RoleSales, http.MethodPost, "/api/orders", fiber.Map{
		"customer_id": "cust-1",
		"lines":       []fiber.Map{{"item_id": itemID, "quantity": "10", "unit_price": "25"}},
	}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "DRAFT", order.Status)
	require.Len(t, order.Lines, 1)
	lineID := order.Lines[0].ID

	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleSales, http.MethodPost, "/api/orders/"+order.ID+"/submit", nil, nil))
	assert.Equal(t, http.StatusForbidden, call(t, app, apphttp.RoleSales, http.MethodPost, "/api/orders/"+order.ID+"/approve", nil, nil))
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleAdmin, http.MethodPost, "/api/orders/"+order.ID+"/approve", nil, &order))
	assert.Equal(t, "APPROVED", order.Status)
	assert.True(t, order.Lines[0].Reserved.Equal(decimal.NewFromInt(10)))

	var errBody dto.ErrorResponse
	status = call(t, app, apphttp.RoleWarehouse, http.MethodPost, "/api/orders/"+order.ID+"/ship", fiber.Map{
		"lines": []fiber.Map{{"line_id": lineID, "quantity": "15"}},
	}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EXCEEDS_RESERVED", errBody.Code)
	require.NotNil(t, errBody.Details)
	assert.Equal(t, lineID, errBody.Details.LineID)
	assert.True(t, errBody.Details.Requested.Equal(decimal.NewFromInt(15)))
	assert.True(t, errBody.Details.Available.Equal(decimal.NewFromInt(10)))

	status = call(t, app, apphttp.RoleWarehouse, http.MethodPost, "/api/orders/"+order.ID+"/ship", fiber.Map{
		"lines": []fiber.Map{{"line_id": lineID, "quantity": "10"}},
	}, &order)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "SHIPPED", order.Status)

	var st map[string]string
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleSales, http.MethodGet, "/api/orders/"+order.ID+"/status", nil, &st))
	assert.Equal(t, "SHIPPED", st["status"])

	var movs []dto.MovementResponse
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleAdmin, http.MethodGet, "/api/inventory/items/"+itemID+"/movements", nil, &movs))
	assert.Len(t, movs, 3)
}

func TestAPI_ConteoConVariacionSinNotasRetorna422(t *testing.T) {
	app := newAPI(t)
	itemID := createItem(t, app, "SKU-1")
	receive(t, app, itemID, "100")

	var pc dto.CountResponse
	status := call(t, app, apphttp.RoleWarehouse, http.MethodPost, "/api/counts", fiber.Map{"item_ids": []string{itemID}}, &pc)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, pc.Lines, 1)
	assert.True(t, pc.Lines[0].SystemQuantity.Equal(decimal.NewFromInt(100)))

	lineID := pc.Lines[0].ID
	status = call(t, app, apphttp.RoleWarehouse, http.MethodPut, "/api/counts/lines/"+lineID, fiber.Map{"counted_quantity": "90"}, &pc)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, pc.Lines[0].Variance.Equal(decimal.NewFromInt(-10)))

	var errBody dto.ErrorResponse
	status = call(t, app, apphttp.RoleWarehouse, http.MethodPost, "/api/counts/"+pc.ID+"/submit", nil, &errBody)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "NOTES_REQUIRED", errBody.Code)

	notes := "merma por rotura"
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleWarehouse, http.MethodPut, "/api/counts/lines/"+lineID,
		dto.RecordCountRequest{CountedQuantity: decimal.NewFromInt(90), Notes: &notes}, nil))
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleWarehouse, http.MethodPost, "/api/counts/"+pc.ID+"/submit", nil, nil))
	assert.Equal(t, http.StatusForbidden, call(t, app, apphttp.RoleWarehouse, http.MethodPost, "/api/counts/"+pc.ID+"/post", nil, nil))
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleAdmin, http.MethodPost, "/api/counts/"+pc.ID+"/post", nil, &pc))
	assert.Equal(t, "POSTED", pc.State)

	var snap dto.SnapshotResponse
	require.Equal(t, http.StatusOK, call(t, app, apphttp.RoleAdmin, http.MethodGet, "/api/inventory/items/"+itemID+"/snapshot", nil, &snap))
	assert.True(t, snap.Available.Equal(decimal.NewFromInt(90)))
}

func TestAPI_ArticuloInexistenteRetorna404(t *testing.T) {
	app := newAPI(t)
	var errBody dto.ErrorResponse
	status := call(t, app, apphttp.RoleSales, http.MethodGet, "/api/items/no-existe", nil, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errBody.Code)
}
