package inventory

import (
	"sort"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SortFIFO ordena lotes del más antiguo al más nuevo (fecha de recepción, luego orden de creación).
func SortFIFO(lots []*entity.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.Seq < b.Seq
	})
}

// PlanFIFO reparte qty entre los lotes con disponible > 0, del más antiguo al más nuevo.
// Devuelve el plan y el faltante (0 si se cubrió todo). No modifica los lotes.
func PlanFIFO(lots []*entity.StockLot, qty decimal.Decimal) ([]entity.LotAllocation, decimal.Decimal) {
	ordered := make([]*entity.StockLot, len(lots))
	copy(ordered, lots)
	SortFIFO(ordered)

	remaining := qty
	var plan []entity.LotAllocation
	for _, lot := range ordered {
		if !remaining.IsPositive() {
			break
		}
		if !lot.Available.IsPositive() {
			continue
		}
		take := decimal.Min(lot.Available, remaining)
		plan = append(plan, entity.LotAllocation{LotID: lot.ID, Quantity: take, UnitCost: lot.UnitCost})
		remaining = remaining.Sub(take)
	}
	return plan, remaining
}

// PlanFromReservations reparte qty sobre las reservas pendientes de una referencia,
// del lote más antiguo al más nuevo. Devuelve el plan y lo que no se pudo cubrir.
func PlanFromReservations(res []entity.LotReservation, qty decimal.Decimal) ([]entity.LotAllocation, decimal.Decimal) {
	ordered := make([]entity.LotReservation, len(res))
	copy(ordered, res)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.LotSeq < b.LotSeq
	})

	remaining := qty
	var plan []entity.LotAllocation
	for _, r := range ordered {
		if !remaining.IsPositive() {
			break
		}
		if !r.Outstanding.IsPositive() {
			continue
		}
		take := decimal.Min(r.Outstanding, remaining)
		plan = append(plan, entity.LotAllocation{LotID: r.LotID, Quantity: take, UnitCost: r.UnitCost})
		remaining = remaining.Sub(take)
	}
	return plan, remaining
}

// TotalOutstanding suma las reservas pendientes.
func TotalOutstanding(res []entity.LotReservation) decimal.Decimal {
	total := decimal.Zero
	for _, r := range res {
		total = total.Add(r.Outstanding)
	}
	return total
}
