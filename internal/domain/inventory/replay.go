package inventory

import (
	"fmt"
	"sort"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Replay reconstruye los lotes aplicando los movimientos en orden de secuencia.
// Es la fuente de verdad: la foto almacenada en cada lote debe coincidir con este resultado.
func Replay(movements []*entity.StockMovement) (map[string]*entity.StockLot, error) {
	ordered := make([]*entity.StockMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	lots := make(map[string]*entity.StockLot)
	for _, m := range ordered {
		lot, ok := lots[m.LotID]
		if !ok {
			lot = &entity.StockLot{
				ID:       m.LotID,
				ItemID:   m.ItemID,
				Location: m.Location,
				UnitCost: m.UnitCost,
			}
			lots[m.LotID] = lot
		}
		if err := ApplyToLot(lot, m.Type, m.Quantity); err != nil {
			return nil, fmt.Errorf("replay movimiento %d: %w", m.Seq, err)
		}
	}
	return lots, nil
}

// LotDrift diferencia entre la foto almacenada y la reconstruida de un lote.
type LotDrift struct {
	LotID    string
	Stored   entity.StockLot
	Replayed entity.StockLot
}

// Diff compara los lotes almacenados con los reconstruidos y devuelve los que no coinciden.
func Diff(stored []*entity.StockLot, replayed map[string]*entity.StockLot) []LotDrift {
	var drifts []LotDrift
	for _, s := range stored {
		r, ok := replayed[s.ID]
		if !ok {
			r = &entity.StockLot{ID: s.ID, ItemID: s.ItemID}
		}
		if !s.Received.Equal(r.Received) || !s.Available.Equal(r.Available) ||
			!s.Reserved.Equal(r.Reserved) || !s.Consumed.Equal(r.Consumed) {
			drifts = append(drifts, LotDrift{LotID: s.ID, Stored: *s, Replayed: *r})
		}
	}
	return drifts
}

// Aggregate suma los lotes en una foto por artículo.
func Aggregate(itemID, location string, lots []*entity.StockLot) entity.StockSnapshot {
	snap := entity.StockSnapshot{
		ItemID:    itemID,
		Location:  location,
		Received:  decimal.Zero,
		Available: decimal.Zero,
		Reserved:  decimal.Zero,
		Consumed:  decimal.Zero,
		OnHand:    decimal.Zero,
		Value:     decimal.Zero,
	}
	for _, l := range lots {
		snap.Received = snap.Received.Add(l.Received)
		snap.Available = snap.Available.Add(l.Available)
		snap.Reserved = snap.Reserved.Add(l.Reserved)
		snap.Consumed = snap.Consumed.Add(l.Consumed)
		snap.OnHand = snap.OnHand.Add(l.OnHand())
		snap.LotCount++
	}
	snap.Value, snap.AverageCost = LotsValue(lots)
	return snap
}
