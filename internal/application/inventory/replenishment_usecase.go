package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/application/dto"
	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

var idealFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase genera la lista de reposición de una ubicación a partir de la foto
// del libro y los umbrales del maestro.
type ReplenishmentUseCase struct {
	ledger *ledger.Ledger
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(l *ledger.Ledger) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{ledger: l}
}

// GenerateReplenishmentList devuelve los artículos cuyo disponible está bajo el punto de reorden,
// con la cantidad sugerida hasta MaxQuantity (o ReorderPoint * 1.5 sin máximo) y el costo
// estimado al costo del próximo lote FIFO. location vacío = todas las ubicaciones.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, location string) ([]dto.ReplenishmentSuggestionDTO, error) {
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	err := uc.ledger.Read(ctx, func(repos repository.Repositories) error {
		items, err := repos.Items.List(ctx, 0, 0)
		if err != nil {
			return err
		}
		for _, item := range items {
			if !item.TracksInventory || !item.ReorderPoint.IsPositive() {
				continue
			}
			lots, err := repos.Lots.ListByItem(ctx, item.ID, location)
			if err != nil {
				return err
			}
			snap := inventory.Aggregate(item.ID, location, lots)
			if !snap.Available.LessThan(item.ReorderPoint) {
				continue
			}
			suggestions = append(suggestions, suggest(item, snap.Available, lots))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Primero el mayor déficit relativo (disponible / punto de reorden), luego el mayor costo estimado.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := a.Available.Div(a.ReorderPoint)
		rb := b.Available.Div(b.ReorderPoint)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.EstimatedOrderCost.GreaterThan(b.EstimatedOrderCost)
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

func suggest(item *entity.Item, available decimal.Decimal, lots []*entity.StockLot) dto.ReplenishmentSuggestionDTO {
	target := item.MaxQuantity
	if !target.IsPositive() {
		target = item.ReorderPoint.Mul(idealFactor)
	}
	qty := target.Sub(available)
	if qty.IsNegative() {
		qty = decimal.Zero
	}
	unitCost := inventory.NextLotCost(lots)
	if unitCost.IsZero() && len(lots) > 0 {
		// sin disponible: último costo recibido
		inventory.SortFIFO(lots)
		unitCost = lots[len(lots)-1].UnitCost
	}
	return dto.ReplenishmentSuggestionDTO{
		ItemID:             item.ID,
		SKU:                item.SKU,
		ItemName:           item.Name,
		Available:          available,
		ReorderPoint:       item.ReorderPoint,
		TargetStock:        target,
		SuggestedOrderQty:  qty,
		UnitCost:           unitCost,
		EstimatedOrderCost: qty.Mul(unitCost),
	}
}
