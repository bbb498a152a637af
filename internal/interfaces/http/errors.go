package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-fulfillment/internal/application/dto"
	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Orden: los errores más específicos primero (ErrOverRelease envuelve ErrInvalidQuantity).
var errorMappings = []errorMapping{
	{domain.ErrOverRelease, fiber.StatusConflict, "OVER_RELEASE"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrLotNotFound, fiber.StatusNotFound, "LOT_NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrOverConsumption, fiber.StatusConflict, "OVER_CONSUMPTION"},
	{domain.ErrExceedsReserved, fiber.StatusConflict, "EXCEEDS_RESERVED"},
	{domain.ErrExceedsShipped, fiber.StatusConflict, "EXCEEDS_SHIPPED"},
	{domain.ErrCannotCancelShipped, fiber.StatusConflict, "CANNOT_CANCEL_SHIPPED"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrNotesRequired, fiber.StatusUnprocessableEntity, "NOTES_REQUIRED"},
	{domain.ErrResourceBusy, fiber.StatusServiceUnavailable, "RESOURCE_BUSY"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// respondError traduce un error de dominio a status + código. Lo no mapeado es 500 y se registra.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		body := dto.ErrorResponse{Code: m.code, Message: err.Error()}
		var qe *domain.QuantityError
		if errors.As(err, &qe) {
			body.Details = &dto.QuantityDetails{
				ItemID:    qe.ItemID,
				LineID:    qe.LineID,
				Requested: qe.Requested,
				Available: qe.Available,
			}
		}
		if m.status == fiber.StatusServiceUnavailable {
			c.Set(fiber.HeaderRetryAfter, "1")
		}
		return c.Status(m.status).JSON(body)
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
