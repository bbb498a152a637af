package repository

import (
	"context"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro (solo inserción).
type StockMovementRepository interface {
	// Append inserta el movimiento y asigna Seq (secuencia autoincremental).
	Append(ctx context.Context, movement *entity.StockMovement) error
	// ListByItem lista movimientos en orden de secuencia. limit <= 0 = todos.
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error)
	// OutstandingReservations reserva pendiente de la referencia por lote (solo lotes con saldo > 0).
	OutstandingReservations(ctx context.Context, itemID string, ref entity.Reference) ([]entity.LotReservation, error)
}
