package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-fulfillment/internal/application/dto"
	"github.com/jhoicas/erp-fulfillment/internal/application/inventory"
	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// InventoryHandler recepciones, ajustes y consultas del libro (protegido).
type InventoryHandler struct {
	ledger        *ledger.Ledger
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(l *ledger.Ledger, replenishment *inventory.ReplenishmentUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: l, replenishment: replenishment, log: log}
}

// Receive godoc
// @Summary      Registrar recepción (crea un lote)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "item_id, quantity, unit_cost, reference_id, location, notes"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	var received time.Time
	if in.ReceivedDate != nil {
		received = *in.ReceivedDate
	}
	lot, err := h.ledger.Receive(c.Context(), ledger.ReceiveInput{
		ItemID:       in.ItemID,
		Location:     in.Location,
		Quantity:     in.Quantity,
		UnitCost:     in.UnitCost,
		ReceivedDate: received,
		Reference:    entity.Reference{Type: entity.RefPurchaseReceipt, ID: in.ReferenceID},
		Actor:        GetUserID(c),
		Notes:        in.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewLotResponse(lot))
}

// Adjust godoc
// @Summary      Ajuste manual con signo (se reparte FIFO sobre los lotes)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "item_id, quantity (+/-), notes"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	actor := GetUserID(c)
	refID := in.ReferenceID
	if refID == "" {
		refID = actor
	}
	movs, err := h.ledger.Adjust(c.Context(), ledger.CorrectionInput{
		ItemID:    in.ItemID,
		Location:  in.Location,
		Type:      entity.MovementAdjustment,
		Quantity:  in.Quantity,
		Reference: entity.Reference{Type: entity.RefManual, ID: refID},
		Actor:     actor,
		Notes:     in.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.NewMovementResponse(m))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Snapshot godoc
// @Summary      Foto del artículo (disponible, reservado, valor)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true   "ID del artículo"
// @Param        location  query  string  false  "Ubicación. Vacío = todas."
// @Success      200  {object}  dto.SnapshotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/snapshot [get]
func (h *InventoryHandler) Snapshot(c *fiber.Ctx) error {
	snap, err := h.ledger.Snapshot(c.Context(), c.Params("id"), c.Query("location"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewSnapshotResponse(snap))
}

// Lots godoc
// @Summary      Lotes del artículo en orden FIFO
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true   "ID del artículo"
// @Param        location  query  string  false  "Ubicación. Vacío = todas."
// @Success      200  {array}  dto.LotResponse
// @Router       /api/inventory/items/{id}/lots [get]
func (h *InventoryHandler) Lots(c *fiber.Ctx) error {
	lots, err := h.ledger.Lots(c.Context(), c.Params("id"), c.Query("location"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, dto.NewLotResponse(l))
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Historial de movimientos del artículo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del artículo"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/items/{id}/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	p := page(c)
	movs, err := h.ledger.Movements(c.Context(), c.Params("id"), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.NewMovementResponse(m))
	}
	return c.JSON(out)
}

// Verify godoc
// @Summary      Reconstruye los lotes desde el historial y reporta diferencias
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.VerifyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/verify [get]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	report, err := h.ledger.Verify(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if !report.Consistent() {
		h.log.Warn().Str("item_id", report.ItemID).Int("drifts", len(report.Drifts)).Msg("libro inconsistente")
	}
	return c.JSON(dto.NewVerifyResponse(report.ItemID, report.Movements, report.Lots, report.Drifts))
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Artículos con disponible bajo el punto de reorden, con la cantidad sugerida
//
//	y el costo estimado al costo del próximo lote FIFO.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location  query  string  false  "Ubicación. Vacío = todas."
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.Context(), c.Query("location"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}
