package repository

import (
	"context"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// PhysicalCountRepository persiste sesiones de conteo y sus líneas.
type PhysicalCountRepository interface {
	Create(ctx context.Context, count *entity.PhysicalCount) error
	GetByID(ctx context.Context, id string) (*entity.PhysicalCount, error)
	GetByLineID(ctx context.Context, lineID string) (*entity.PhysicalCount, error)
	Update(ctx context.Context, count *entity.PhysicalCount) error
}
