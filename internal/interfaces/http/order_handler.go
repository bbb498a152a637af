package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-fulfillment/internal/application/dto"
	"github.com/jhoicas/erp-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	status "github.com/jhoicas/erp-fulfillment/internal/domain/fulfillment"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// OrderHandler pedidos de venta y su máquina de estados (protegido).
type OrderHandler struct {
	svc *fulfillment.Service
	log *logger.Logger
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *fulfillment.Service, log *logger.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

func (h *OrderHandler) respond(c *fiber.Ctx, o *entity.SalesOrder, err error) error {
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o, status.DeriveStatus(o)))
}

// Create godoc
// @Summary      Crear pedido en borrador
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Cliente, ubicación y líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	lines := make([]fulfillment.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, fulfillment.LineInput{ItemID: l.ItemID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	o, err := h.svc.CreateOrder(c.Context(), fulfillment.CreateOrderInput{
		Number:     in.Number,
		CustomerID: in.CustomerID,
		Location:   in.Location,
		Lines:      lines,
		Actor:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewOrderResponse(o, status.DeriveStatus(o)))
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.OrderListResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	p := page(c)
	orders, err := h.svc.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := dto.OrderListResponse{
		Items: make([]dto.OrderResponse, 0, len(orders)),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	}
	for _, o := range orders {
		out.Items = append(out.Items, dto.NewOrderResponse(o, status.DeriveStatus(o)))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.svc.Get(c.Context(), c.Params("id"))
	return h.respond(c, o, err)
}

// Status godoc
// @Summary      Estado proyectado del pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/status [get]
func (h *OrderHandler) Status(c *fiber.Ctx) error {
	st, err := h.svc.OrderStatus(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "status": string(st)})
}

// Submit godoc
// @Summary      Enviar a aprobación (DRAFT -> PENDING_APPROVAL)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/submit [post]
func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	o, err := h.svc.Submit(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, o, err)
}

// Approve godoc
// @Summary      Aprobar y reservar stock
// @Description  Reserva FIFO por línea. Con faltante el pedido queda ON_HOLD con lo parcial reservado.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/approve [post]
func (h *OrderHandler) Approve(c *fiber.Ctx) error {
	o, err := h.svc.Approve(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, o, err)
}

// StartProcessing godoc
// @Summary      Iniciar alistamiento (APPROVED -> PROCESSING)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/process [post]
func (h *OrderHandler) StartProcessing(c *fiber.Ctx) error {
	o, err := h.svc.StartProcessing(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, o, err)
}

// Ship godoc
// @Summary      Despachar cantidades por línea
// @Description  Consume lo reservado. Todo o nada: si una línea supera lo reservado no se aplica ninguna.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.LineQuantitiesRequest  true  "Cantidades por línea"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *fiber.Ctx) error {
	var in dto.LineQuantitiesRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	o, err := h.svc.Ship(c.Context(), c.Params("id"), in.ToEntity(), GetUserID(c))
	return h.respond(c, o, err)
}

// Deliver godoc
// @Summary      Confirmar entrega (SHIPPED -> DELIVERED)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *fiber.Ctx) error {
	o, err := h.svc.Deliver(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, o, err)
}

// Invoice godoc
// @Summary      Facturar cantidades por línea (acotado por lo despachado)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.LineQuantitiesRequest  true  "Cantidades por línea"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/invoice [post]
func (h *OrderHandler) Invoice(c *fiber.Ctx) error {
	var in dto.LineQuantitiesRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	o, err := h.svc.Invoice(c.Context(), c.Params("id"), in.ToEntity(), GetUserID(c))
	return h.respond(c, o, err)
}

// SettlePayment godoc
// @Summary      Registrar pago (INVOICED -> COMPLETED)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.SettlePaymentRequest  true  "Referencia de pago"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/settle [post]
func (h *OrderHandler) SettlePayment(c *fiber.Ctx) error {
	var in dto.SettlePaymentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	o, err := h.svc.SettlePayment(c.Context(), c.Params("id"), in.Reference, GetUserID(c))
	return h.respond(c, o, err)
}

// Cancel godoc
// @Summary      Cancelar pedido (libera reservas; no aplica si hay despachos)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	o, err := h.svc.Cancel(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, o, err)
}

// CancelRemainder godoc
// @Summary      Cancelar el saldo no despachado
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel-remainder [post]
func (h *OrderHandler) CancelRemainder(c *fiber.Ctx) error {
	o, err := h.svc.CancelRemainder(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, o, err)
}

// Hold godoc
// @Summary      Retener pedido
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.HoldRequest  true  "Motivo"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/hold [post]
func (h *OrderHandler) Hold(c *fiber.Ctx) error {
	var in dto.HoldRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	o, err := h.svc.Hold(c.Context(), c.Params("id"), in.Reason, GetUserID(c))
	return h.respond(c, o, err)
}

// Resume godoc
// @Summary      Reanudar pedido retenido (reintenta la reserva)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/resume [post]
func (h *OrderHandler) Resume(c *fiber.Ctx) error {
	o, err := h.svc.Resume(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, o, err)
}
