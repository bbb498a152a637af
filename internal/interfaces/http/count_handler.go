package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-fulfillment/internal/application/count"
	"github.com/jhoicas/erp-fulfillment/internal/application/dto"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// CountHandler conteos físicos y su contabilización (protegido).
type CountHandler struct {
	reconciler *count.Reconciler
	log        *logger.Logger
}

// NewCountHandler construye el handler.
func NewCountHandler(r *count.Reconciler, log *logger.Logger) *CountHandler {
	return &CountHandler{reconciler: r, log: log}
}

func (h *CountHandler) respond(c *fiber.Ctx, status int, pc *entity.PhysicalCount, err error) error {
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(status).JSON(dto.NewCountResponse(pc))
}

// Start godoc
// @Summary      Abrir conteo físico
// @Description  Toma como cantidad de sistema el disponible del libro en la ubicación.
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartCountRequest  true  "Ubicación y artículos"
// @Success      201   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/counts [post]
func (h *CountHandler) Start(c *fiber.Ctx) error {
	var in dto.StartCountRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	var date time.Time
	if in.CountDate != nil {
		date = *in.CountDate
	}
	pc, err := h.reconciler.StartCount(c.Context(), count.StartCountInput{
		Location:  in.Location,
		ItemIDs:   in.ItemIDs,
		CountDate: date,
		Actor:     GetUserID(c),
	})
	return h.respond(c, fiber.StatusCreated, pc, err)
}

// Get godoc
// @Summary      Obtener conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id} [get]
func (h *CountHandler) Get(c *fiber.Ctx) error {
	pc, err := h.reconciler.Get(c.Context(), c.Params("id"))
	return h.respond(c, fiber.StatusOK, pc, err)
}

// Record godoc
// @Summary      Registrar cantidad contada de una línea
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        lineId  path  string  true  "ID de la línea"
// @Param        body    body  dto.RecordCountRequest  true  "Cantidad contada y notas"
// @Success      200     {object}  dto.CountResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/counts/lines/{lineId} [put]
func (h *CountHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	pc, err := h.reconciler.RecordCount(c.Context(), c.Params("lineId"), in.CountedQuantity, in.Notes, GetUserID(c))
	return h.respond(c, fiber.StatusOK, pc, err)
}

// Submit godoc
// @Summary      Cerrar captura (IN_PROGRESS -> SUBMITTED)
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/submit [post]
func (h *CountHandler) Submit(c *fiber.Ctx) error {
	pc, err := h.reconciler.SubmitCount(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, fiber.StatusOK, pc, err)
}

// Post godoc
// @Summary      Contabilizar conteo
// @Description  Genera un COUNT_CORRECTION por línea con variación. Todo o nada.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/post [post]
func (h *CountHandler) Post(c *fiber.Ctx) error {
	pc, err := h.reconciler.PostCount(c.Context(), c.Params("id"), GetUserID(c))
	return h.respond(c, fiber.StatusOK, pc, err)
}
