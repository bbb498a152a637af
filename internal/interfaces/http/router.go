package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-fulfillment/internal/application/count"
	"github.com/jhoicas/erp-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/erp-fulfillment/internal/application/inventory"
	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/application/usecase"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Items         *usecase.ItemUseCase
	Ledger        *ledger.Ledger
	Replenishment *inventory.ReplenishmentUseCase
	Orders        *fulfillment.Service
	Counts        *count.Reconciler
	JWTSecret     string
	Log           *logger.Logger
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("http")

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	admin := RequireRole(RoleAdmin)
	warehouse := RequireRole(RoleAdmin, RoleWarehouse)
	sales := RequireRole(RoleAdmin, RoleSales)
	anyone := RequireRole(RoleAdmin, RoleWarehouse, RoleSales)

	// Items
	items := api.Group("/items", anyone)
	itemHandler := NewItemHandler(deps.Items, log)
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Post("/", admin, itemHandler.Create)
	items.Put("/:id", admin, itemHandler.Update)

	// Inventory (libro de stock)
	inv := api.Group("/inventory", anyone)
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Replenishment, log)
	inv.Post("/receipts", warehouse, inventoryHandler.Receive)
	inv.Post("/adjustments", admin, inventoryHandler.Adjust)
	inv.Get("/items/:id/snapshot", inventoryHandler.Snapshot)
	inv.Get("/items/:id/lots", inventoryHandler.Lots)
	inv.Get("/items/:id/movements", inventoryHandler.Movements)
	inv.Get("/items/:id/verify", admin, inventoryHandler.Verify)
	inv.Get("/replenishment-list", inventoryHandler.GetReplenishmentList)

	// Orders
	orders := api.Group("/orders", anyone)
	orderHandler := NewOrderHandler(deps.Orders, log)
	orders.Get("/", orderHandler.List)
	orders.Post("/", sales, orderHandler.Create)
	orders.Get("/:id", orderHandler.Get)
	orders.Get("/:id/status", orderHandler.Status)
	orders.Post("/:id/submit", sales, orderHandler.Submit)
	orders.Post("/:id/approve", admin, orderHandler.Approve)
	orders.Post("/:id/process", warehouse, orderHandler.StartProcessing)
	orders.Post("/:id/ship", warehouse, orderHandler.Ship)
	orders.Post("/:id/deliver", warehouse, orderHandler.Deliver)
	orders.Post("/:id/invoice", sales, orderHandler.Invoice)
	orders.Post("/:id/settle", sales, orderHandler.SettlePayment)
	orders.Post("/:id/cancel", sales, orderHandler.Cancel)
	orders.Post("/:id/cancel-remainder", sales, orderHandler.CancelRemainder)
	orders.Post("/:id/hold", sales, orderHandler.Hold)
	orders.Post("/:id/resume", sales, orderHandler.Resume)

	// Physical counts
	counts := api.Group("/counts", warehouse)
	countHandler := NewCountHandler(deps.Counts, log)
	counts.Post("/", countHandler.Start)
	counts.Put("/lines/:lineId", countHandler.Record)
	counts.Get("/:id", countHandler.Get)
	counts.Post("/:id/submit", countHandler.Submit)
	counts.Post("/:id/post", admin, countHandler.Post)
}
