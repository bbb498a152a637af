package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo del maestro. La identidad (ID, SKU) es inmutable;
// los umbrales de reposición se pueden modificar.
type Item struct {
	ID              string
	SKU             string
	Name            string
	TracksInventory bool            // false para servicios: no generan movimientos de stock
	ReorderPoint    decimal.Decimal // punto de reorden
	MinQuantity     decimal.Decimal
	MaxQuantity     decimal.Decimal // 0 = sin máximo definido
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
