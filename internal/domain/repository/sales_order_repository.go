package repository

import (
	"context"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// SalesOrderRepository persiste cabecera (banderas) y contadores de línea. No guarda estado.
type SalesOrderRepository interface {
	Create(ctx context.Context, order *entity.SalesOrder) error
	GetByID(ctx context.Context, id string) (*entity.SalesOrder, error)
	Update(ctx context.Context, order *entity.SalesOrder) error
	List(ctx context.Context, limit, offset int) ([]*entity.SalesOrder, error)
}
