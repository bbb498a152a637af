package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// CreateItemRequest entrada para crear un artículo. TracksInventory nil = true.
type CreateItemRequest struct {
	SKU             string          `json:"sku" validate:"required,min=1,max=100"`
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	TracksInventory *bool           `json:"tracks_inventory"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	MinQuantity     decimal.Decimal `json:"min_quantity"`
	MaxQuantity     decimal.Decimal `json:"max_quantity"`
}

// UpdateItemRequest entrada para actualizar nombre y umbrales (SKU y tipo son inmutables).
type UpdateItemRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
	MinQuantity  *decimal.Decimal `json:"min_quantity"`
	MaxQuantity  *decimal.Decimal `json:"max_quantity"`
}

// ItemResponse salida de un artículo.
type ItemResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	TracksInventory bool            `json:"tracks_inventory"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	MinQuantity     decimal.Decimal `json:"min_quantity"`
	MaxQuantity     decimal.Decimal `json:"max_quantity"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de artículos.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// NewItemResponse mapea la entidad.
func NewItemResponse(it *entity.Item) *ItemResponse {
	if it == nil {
		return nil
	}
	return &ItemResponse{
		ID:              it.ID,
		SKU:             it.SKU,
		Name:            it.Name,
		TracksInventory: it.TracksInventory,
		ReorderPoint:    it.ReorderPoint,
		MinQuantity:     it.MinQuantity,
		MaxQuantity:     it.MaxQuantity,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}
