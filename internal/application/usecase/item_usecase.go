package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/application/dto"
	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

// ItemUseCase casos de uso del maestro de artículos. El stock se maneja solo vía el libro.
type ItemUseCase struct {
	ledger *ledger.Ledger
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(l *ledger.Ledger) *ItemUseCase {
	return &ItemUseCase{ledger: l}
}

// Create crea un artículo. TracksInventory por defecto true.
func (uc *ItemUseCase) Create(ctx context.Context, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := checkThresholds(in.ReorderPoint, in.MinQuantity, in.MaxQuantity); err != nil {
		return nil, err
	}
	tracks := true
	if in.TracksInventory != nil {
		tracks = *in.TracksInventory
	}
	now := uc.ledger.Now()
	item := &entity.Item{
		ID:              uuid.New().String(),
		SKU:             in.SKU,
		Name:            in.Name,
		TracksInventory: tracks,
		ReorderPoint:    in.ReorderPoint,
		MinQuantity:     in.MinQuantity,
		MaxQuantity:     in.MaxQuantity,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := uc.ledger.Atomic(ctx, nil, func(repos repository.Repositories, _ *ledger.Batch) error {
		return repos.Items.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return dto.NewItemResponse(item), nil
}

// GetByID obtiene un artículo por ID.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	var item *entity.Item
	err := uc.ledger.Read(ctx, func(repos repository.Repositories) error {
		var err error
		item, err = repos.Items.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return dto.NewItemResponse(item), nil
}

// Update modifica nombre y umbrales bajo el candado del artículo.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	var item *entity.Item
	err := uc.ledger.Atomic(ctx, []string{id}, func(repos repository.Repositories, _ *ledger.Batch) error {
		var err error
		item, err = repos.Items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.ErrInvalidInput
			}
			item.Name = name
		}
		if in.ReorderPoint != nil {
			item.ReorderPoint = *in.ReorderPoint
		}
		if in.MinQuantity != nil {
			item.MinQuantity = *in.MinQuantity
		}
		if in.MaxQuantity != nil {
			item.MaxQuantity = *in.MaxQuantity
		}
		if err := checkThresholds(item.ReorderPoint, item.MinQuantity, item.MaxQuantity); err != nil {
			return err
		}
		item.UpdatedAt = uc.ledger.Now()
		return repos.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return dto.NewItemResponse(item), nil
}

// List lista artículos ordenados por SKU.
func (uc *ItemUseCase) List(ctx context.Context, limit, offset int) (*dto.ItemListResponse, error) {
	var list []*entity.Item
	err := uc.ledger.Read(ctx, func(repos repository.Repositories) error {
		var err error
		list, err = repos.Items.List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *dto.NewItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// checkThresholds umbrales no negativos; MaxQuantity 0 = sin máximo, si no debe cubrir el mínimo.
func checkThresholds(reorder, minQty, maxQty decimal.Decimal) error {
	if reorder.IsNegative() || minQty.IsNegative() || maxQty.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	if maxQty.IsPositive() && maxQty.LessThan(minQty) {
		return domain.ErrInvalidInput
	}
	return nil
}
