package repository

import (
	"context"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para el maestro de artículos (DIP).
// GetByID devuelve (nil, nil) si no existe.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
	// GetForUpdate bloquea la fila del artículo (SELECT FOR UPDATE) hasta el fin de la transacción.
	// Es el candado que serializa reservas, consumos y correcciones sobre sus lotes.
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
}
