package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

// Allocation resultado de una reserva. Shortfall > 0 indica reserva parcial.
type Allocation struct {
	ItemID    string
	Requested decimal.Decimal
	Reserved  decimal.Decimal
	Shortfall decimal.Decimal
	Lots      []entity.LotAllocation
}

// Complete true si se reservó todo lo pedido.
func (a *Allocation) Complete() bool { return !a.Shortfall.IsPositive() }

// AllocationRequest pedido de reserva, liberación o consumo para una referencia.
type AllocationRequest struct {
	ItemID    string
	Location  string // solo Reserve; vacío = ubicación por defecto
	Quantity  decimal.Decimal
	Reference entity.Reference
	Actor     string
}

// AllocationEngine reserva, libera y consume contra lotes en orden FIFO.
// Las liberaciones y consumos recaen exactamente sobre los lotes reservados por la referencia.
type AllocationEngine struct {
	ledger *Ledger
}

// NewAllocationEngine construye el motor sobre el libro.
func NewAllocationEngine(l *Ledger) *AllocationEngine {
	return &AllocationEngine{ledger: l}
}

// Reserve reserva hasta Quantity tomando de los lotes más antiguos con disponible.
func (e *AllocationEngine) Reserve(ctx context.Context, req AllocationRequest) (*Allocation, error) {
	var alloc *Allocation
	err := e.ledger.Atomic(ctx, []string{req.ItemID}, func(repos repository.Repositories, b *Batch) error {
		var err error
		alloc, err = e.ReserveInTx(ctx, repos, b, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return alloc, nil
}

// ReserveInTx igual que Reserve dentro de la transacción del caller (con el candado del artículo).
func (e *AllocationEngine) ReserveInTx(ctx context.Context, repos repository.Repositories, b *Batch, req AllocationRequest) (*Allocation, error) {
	item, err := e.validate(ctx, repos, req)
	if err != nil {
		return nil, err
	}
	alloc := &Allocation{ItemID: req.ItemID, Requested: req.Quantity, Reserved: req.Quantity, Shortfall: decimal.Zero}
	if !item.TracksInventory {
		return alloc, nil
	}

	lots, err := repos.Lots.ListByItem(ctx, req.ItemID, e.ledger.Location(req.Location))
	if err != nil {
		return nil, err
	}
	plan, shortfall := inventory.PlanFIFO(lots, req.Quantity)
	byID := lotIndex(lots)
	for _, p := range plan {
		if _, err := e.ledger.apply(ctx, repos, b, byID[p.LotID], entity.MovementReserve, p.Quantity, req.Reference, req.Actor, ""); err != nil {
			return nil, err
		}
	}
	alloc.Lots = plan
	alloc.Shortfall = shortfall
	alloc.Reserved = req.Quantity.Sub(shortfall)
	return alloc, nil
}

// Release devuelve a disponible parte de la reserva de la referencia, sobre los mismos lotes.
// Nunca más de lo pendiente.
func (e *AllocationEngine) Release(ctx context.Context, req AllocationRequest) ([]entity.LotAllocation, error) {
	var lots []entity.LotAllocation
	err := e.ledger.Atomic(ctx, []string{req.ItemID}, func(repos repository.Repositories, b *Batch) error {
		var err error
		lots, err = e.ReleaseInTx(ctx, repos, b, req)
		return err
	})
	return lots, err
}

// ReleaseInTx igual que Release dentro de la transacción del caller.
func (e *AllocationEngine) ReleaseInTx(ctx context.Context, repos repository.Repositories, b *Batch, req AllocationRequest) ([]entity.LotAllocation, error) {
	return e.drawDown(ctx, repos, b, req, entity.MovementRelease, domain.ErrOverRelease)
}

// Consume convierte reserva en salida definitiva (despacho), del lote reservado más antiguo al más nuevo.
func (e *AllocationEngine) Consume(ctx context.Context, req AllocationRequest) ([]entity.LotAllocation, error) {
	var lots []entity.LotAllocation
	err := e.ledger.Atomic(ctx, []string{req.ItemID}, func(repos repository.Repositories, b *Batch) error {
		var err error
		lots, err = e.ConsumeInTx(ctx, repos, b, req)
		return err
	})
	return lots, err
}

// ConsumeInTx igual que Consume dentro de la transacción del caller.
func (e *AllocationEngine) ConsumeInTx(ctx context.Context, repos repository.Repositories, b *Batch, req AllocationRequest) ([]entity.LotAllocation, error) {
	return e.drawDown(ctx, repos, b, req, entity.MovementConsume, domain.ErrOverConsumption)
}

// Outstanding reserva pendiente de la referencia sobre el artículo.
func (e *AllocationEngine) Outstanding(ctx context.Context, itemID string, ref entity.Reference) (decimal.Decimal, error) {
	total := decimal.Zero
	err := e.ledger.Read(ctx, func(repos repository.Repositories) error {
		res, err := repos.Movements.OutstandingReservations(ctx, itemID, ref)
		if err != nil {
			return err
		}
		total = inventory.TotalOutstanding(res)
		return nil
	})
	return total, err
}

// drawDown aplica RELEASE o CONSUME sobre las reservas pendientes de la referencia.
func (e *AllocationEngine) drawDown(
	ctx context.Context, repos repository.Repositories, b *Batch,
	req AllocationRequest, t entity.MovementType, over error,
) ([]entity.LotAllocation, error) {
	item, err := e.validate(ctx, repos, req)
	if err != nil {
		return nil, err
	}
	if !item.TracksInventory {
		return nil, nil
	}

	res, err := repos.Movements.OutstandingReservations(ctx, req.ItemID, req.Reference)
	if err != nil {
		return nil, err
	}
	outstanding := inventory.TotalOutstanding(res)
	if req.Quantity.GreaterThan(outstanding) {
		return nil, domain.NewQuantityError(over, req.ItemID, req.Reference.ID, req.Quantity, outstanding)
	}
	plan, _ := inventory.PlanFromReservations(res, req.Quantity)
	for _, p := range plan {
		lot, err := repos.Lots.GetByID(ctx, p.LotID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, domain.ErrLotNotFound
		}
		if _, err := e.ledger.apply(ctx, repos, b, lot, t, p.Quantity.Neg(), req.Reference, req.Actor, ""); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (e *AllocationEngine) validate(ctx context.Context, repos repository.Repositories, req AllocationRequest) (*entity.Item, error) {
	if req.ItemID == "" || req.Actor == "" || !req.Reference.Type.Valid() || req.Reference.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !req.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	item, err := repos.Items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}
