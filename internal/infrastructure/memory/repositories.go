package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
)

type itemRepo struct{ st *state }

func (r *itemRepo) Create(_ context.Context, item *entity.Item) error {
	if _, ok := r.st.items[item.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, it := range r.st.items {
		if it.SKU == item.SKU {
			return domain.ErrDuplicate
		}
	}
	r.st.items[item.ID] = copyItem(item)
	return nil
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	it, ok := r.st.items[id]
	if !ok {
		return nil, nil
	}
	return copyItem(it), nil
}

func (r *itemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	// el mutex del store ya serializa la transacción completa
	return r.GetByID(ctx, id)
}

func (r *itemRepo) Update(_ context.Context, item *entity.Item) error {
	if _, ok := r.st.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	r.st.items[item.ID] = copyItem(item)
	return nil
}

func (r *itemRepo) List(_ context.Context, limit, offset int) ([]*entity.Item, error) {
	all := make([]*entity.Item, 0, len(r.st.items))
	for _, it := range r.st.items {
		all = append(all, copyItem(it))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	return page(all, limit, offset), nil
}

type lotRepo struct{ st *state }

func (r *lotRepo) Create(_ context.Context, lot *entity.StockLot) error {
	if _, ok := r.st.lots[lot.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.lotSeq++
	lot.Seq = r.st.lotSeq
	r.st.lots[lot.ID] = copyLot(lot)
	return nil
}

func (r *lotRepo) GetByID(_ context.Context, id string) (*entity.StockLot, error) {
	l, ok := r.st.lots[id]
	if !ok {
		return nil, nil
	}
	return copyLot(l), nil
}

func (r *lotRepo) UpdateSnapshot(_ context.Context, lot *entity.StockLot) error {
	cur, ok := r.st.lots[lot.ID]
	if !ok {
		return domain.ErrLotNotFound
	}
	cur.Received = lot.Received
	cur.Available = lot.Available
	cur.Reserved = lot.Reserved
	cur.Consumed = lot.Consumed
	cur.UpdatedAt = lot.UpdatedAt
	return nil
}

func (r *lotRepo) ListByItem(_ context.Context, itemID, location string) ([]*entity.StockLot, error) {
	out := make([]*entity.StockLot, 0)
	for _, l := range r.st.lots {
		if l.ItemID != itemID || (location != "" && l.Location != location) {
			continue
		}
		out = append(out, copyLot(l))
	}
	inventory.SortFIFO(out)
	return out, nil
}

type movementRepo struct{ st *state }

func (r *movementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	r.st.movSeq++
	m.Seq = r.st.movSeq
	r.st.movements = append(r.st.movements, copyMovement(m))
	return nil
}

func (r *movementRepo) ListByItem(_ context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	out := make([]*entity.StockMovement, 0)
	for _, m := range r.st.movements {
		if m.ItemID == itemID {
			out = append(out, copyMovement(m))
		}
	}
	return page(out, limit, offset), nil
}

func (r *movementRepo) OutstandingReservations(_ context.Context, itemID string, ref entity.Reference) ([]entity.LotReservation, error) {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, m := range r.st.movements {
		if m.ItemID != itemID || m.Reference != ref {
			continue
		}
		switch m.Type {
		case entity.MovementReserve, entity.MovementRelease, entity.MovementConsume:
		default:
			continue
		}
		if _, ok := sums[m.LotID]; !ok {
			order = append(order, m.LotID)
			sums[m.LotID] = decimal.Zero
		}
		sums[m.LotID] = sums[m.LotID].Add(m.Quantity)
	}
	out := make([]entity.LotReservation, 0, len(order))
	for _, lotID := range order {
		if !sums[lotID].IsPositive() {
			continue
		}
		lot := r.st.lots[lotID]
		if lot == nil {
			return nil, domain.ErrLotNotFound
		}
		out = append(out, entity.LotReservation{
			LotID:        lotID,
			ReceivedDate: lot.ReceivedDate,
			LotSeq:       lot.Seq,
			Outstanding:  sums[lotID],
			UnitCost:     lot.UnitCost,
		})
	}
	return out, nil
}

type orderRepo struct{ st *state }

func (r *orderRepo) Create(_ context.Context, o *entity.SalesOrder) error {
	if _, ok := r.st.orders[o.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, cur := range r.st.orders {
		if cur.Number == o.Number {
			return domain.ErrDuplicate
		}
	}
	r.st.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.SalesOrder, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (r *orderRepo) Update(_ context.Context, o *entity.SalesOrder) error {
	if _, ok := r.st.orders[o.ID]; !ok {
		return domain.ErrNotFound
	}
	r.st.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *orderRepo) List(_ context.Context, limit, offset int) ([]*entity.SalesOrder, error) {
	all := make([]*entity.SalesOrder, 0, len(r.st.orders))
	for _, o := range r.st.orders {
		all = append(all, copyOrder(o))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Number > all[j].Number
	})
	return page(all, limit, offset), nil
}

type countRepo struct{ st *state }

func (r *countRepo) Create(_ context.Context, c *entity.PhysicalCount) error {
	if _, ok := r.st.counts[c.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.counts[c.ID] = copyCount(c)
	return nil
}

func (r *countRepo) GetByID(_ context.Context, id string) (*entity.PhysicalCount, error) {
	c, ok := r.st.counts[id]
	if !ok {
		return nil, nil
	}
	return copyCount(c), nil
}

func (r *countRepo) GetByLineID(_ context.Context, lineID string) (*entity.PhysicalCount, error) {
	for _, c := range r.st.counts {
		if c.Line(lineID) != nil {
			return copyCount(c), nil
		}
	}
	return nil, nil
}

func (r *countRepo) Update(_ context.Context, c *entity.PhysicalCount) error {
	if _, ok := r.st.counts[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.st.counts[c.ID] = copyCount(c)
	return nil
}
