package repository

import (
	"context"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// StockLotRepository persiste lotes y su foto derivada. Los lotes nunca se eliminan.
type StockLotRepository interface {
	// Create inserta el lote y asigna Seq.
	Create(ctx context.Context, lot *entity.StockLot) error
	GetByID(ctx context.Context, id string) (*entity.StockLot, error)
	// UpdateSnapshot guarda los cuatro baldes del lote.
	UpdateSnapshot(ctx context.Context, lot *entity.StockLot) error
	// ListByItem devuelve los lotes en orden FIFO. location vacío = todas las ubicaciones.
	ListByItem(ctx context.Context, itemID, location string) ([]*entity.StockLot, error)
}
