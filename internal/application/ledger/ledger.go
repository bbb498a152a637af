// Package ledger es el libro de stock por lotes y el motor de asignación FIFO.
// Es el único componente que crea lotes y agrega movimientos.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// Options parámetros del libro.
type Options struct {
	BusyRetries     int           // reintentos ante ResourceBusy
	RetryBackoff    time.Duration // espera base entre reintentos (lineal)
	DefaultLocation string
	Now             func() time.Time
}

// Ledger libro de stock. Cada escritura corre como unidad atómica por conjunto de artículos:
// candado por artículo (Locker) + SELECT FOR UPDATE sobre el artículo dentro de la transacción.
type Ledger struct {
	tx        TxRunner
	locker    Locker
	publisher Publisher
	log       *logger.Logger
	opts      Options
}

// New construye el libro. locker y publisher son opcionales.
func New(tx TxRunner, locker Locker, publisher Publisher, log *logger.Logger, opts Options) *Ledger {
	if locker == nil {
		locker = NopLocker{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 25 * time.Millisecond
	}
	if opts.DefaultLocation == "" {
		opts.DefaultLocation = "MAIN"
	}
	return &Ledger{tx: tx, locker: locker, publisher: publisher, log: log.Component("ledger"), opts: opts}
}

// Now hora del libro (inyectable en tests).
func (l *Ledger) Now() time.Time { return l.opts.Now().UTC() }

// Location devuelve loc o la ubicación por defecto.
func (l *Ledger) Location(loc string) string {
	if loc == "" {
		return l.opts.DefaultLocation
	}
	return loc
}

// Atomic ejecuta fn como unidad atómica sobre los artículos indicados. Los candados se toman
// en orden de ID para evitar interbloqueos. Ante ResourceBusy reintenta hasta BusyRetries veces;
// los eventos del lote se publican solo tras un commit exitoso.
func (l *Ledger) Atomic(ctx context.Context, itemIDs []string, fn func(repos repository.Repositories, b *Batch) error) error {
	ids := sortedUnique(itemIDs)
	for attempt := 0; ; attempt++ {
		var batch Batch
		err := l.atomicOnce(ctx, ids, &batch, fn)
		if err == nil {
			l.publish(ctx, batch.Events())
			return nil
		}
		if !domain.IsRetryable(err) || attempt >= l.opts.BusyRetries {
			return err
		}
		l.log.Warn().Err(err).Strs("item_ids", ids).Int("attempt", attempt+1).Msg("recurso ocupado, reintentando")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.RetryBackoff * time.Duration(attempt+1)):
		}
	}
}

func (l *Ledger) atomicOnce(ctx context.Context, ids []string, batch *Batch, fn func(repository.Repositories, *Batch) error) error {
	for _, id := range ids {
		unlock, err := l.locker.Lock(ctx, "item:"+id)
		if err != nil {
			return err
		}
		defer unlock()
	}
	return l.tx.Run(ctx, func(repos repository.Repositories) error {
		for _, id := range ids {
			item, err := repos.Items.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
			}
		}
		return fn(repos, batch)
	})
}

// Read ejecuta lecturas dentro de una transacción sin candados de artículo.
func (l *Ledger) Read(ctx context.Context, fn func(repos repository.Repositories) error) error {
	return l.tx.Run(ctx, fn)
}

func (l *Ledger) publish(ctx context.Context, events []entity.Event) {
	if l.publisher == nil || len(events) == 0 {
		return
	}
	if err := l.publisher.Publish(ctx, events...); err != nil {
		l.log.Error().Err(err).Int("events", len(events)).Msg("error publicando eventos")
	}
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ReceiveInput entrada de stock (recepción de compra u otra entrada con costo).
type ReceiveInput struct {
	ItemID       string
	Location     string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	ReceivedDate time.Time // cero = ahora
	Reference    entity.Reference
	Actor        string
	Notes        string
}

// Receive crea un lote nuevo con todo disponible y registra el movimiento RECEIPT.
func (l *Ledger) Receive(ctx context.Context, in ReceiveInput) (*entity.StockLot, error) {
	var lot *entity.StockLot
	err := l.Atomic(ctx, []string{in.ItemID}, func(repos repository.Repositories, b *Batch) error {
		var err error
		lot, err = l.ReceiveInTx(ctx, repos, b, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("item_id", lot.ItemID).Str("lot_id", lot.ID).Str("quantity", lot.Received.String()).
		Str("actor", in.Actor).Msg("recepción registrada")
	return lot, nil
}

// ReceiveInTx igual que Receive pero con los repositorios de la transacción del caller.
func (l *Ledger) ReceiveInTx(ctx context.Context, repos repository.Repositories, b *Batch, in ReceiveInput) (*entity.StockLot, error) {
	if in.ItemID == "" || in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Quantity.IsPositive() || in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Reference.Type == "" {
		in.Reference.Type = entity.RefPurchaseReceipt
	}
	if !in.Reference.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	item, err := repos.Items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if !item.TracksInventory {
		return nil, fmt.Errorf("item %s no lleva inventario: %w", item.ID, domain.ErrInvalidInput)
	}
	received := in.ReceivedDate
	if received.IsZero() {
		received = l.Now()
	}
	lot, _, err := l.newLot(ctx, repos, b, item.ID, l.Location(in.Location), entity.MovementReceipt,
		in.Quantity, in.UnitCost, received, in.Reference, in.Actor, in.Notes)
	return lot, err
}

// newLot crea un lote vacío y le aplica su primer movimiento, de modo que el replay lo reconstruya.
func (l *Ledger) newLot(
	ctx context.Context, repos repository.Repositories, b *Batch,
	itemID, location string, t entity.MovementType, qty, unitCost decimal.Decimal,
	receivedDate time.Time, ref entity.Reference, actor, notes string,
) (*entity.StockLot, *entity.StockMovement, error) {
	now := l.Now()
	lot := &entity.StockLot{
		ID:           uuid.New().String(),
		ItemID:       itemID,
		Location:     location,
		Received:     decimal.Zero,
		Available:    decimal.Zero,
		Reserved:     decimal.Zero,
		Consumed:     decimal.Zero,
		UnitCost:     unitCost,
		ReceivedDate: receivedDate,
		UpdatedAt:    now,
	}
	if err := inventory.ApplyToLot(lot, t, qty); err != nil {
		return nil, nil, err
	}
	if err := repos.Lots.Create(ctx, lot); err != nil {
		return nil, nil, err
	}
	mov, err := l.appendMovement(ctx, repos, b, lot, t, qty, ref, actor, notes)
	if err != nil {
		return nil, nil, err
	}
	return lot, mov, nil
}

// MovementInput movimiento explícito sobre un lote existente.
type MovementInput struct {
	LotID     string
	Type      entity.MovementType
	Quantity  decimal.Decimal // con signo solo para ADJUSTMENT/COUNT_CORRECTION
	Reference entity.Reference
	Actor     string
	Notes     string
}

// ApplyMovement agrega un movimiento y actualiza la foto del lote de forma atómica.
func (l *Ledger) ApplyMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	var itemID string
	err := l.Read(ctx, func(repos repository.Repositories) error {
		lot, err := repos.Lots.GetByID(ctx, in.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return domain.ErrLotNotFound
		}
		itemID = lot.ItemID
		return nil
	})
	if err != nil {
		return nil, err
	}

	var mov *entity.StockMovement
	err = l.Atomic(ctx, []string{itemID}, func(repos repository.Repositories, b *Batch) error {
		var err error
		mov, err = l.ApplyMovementInTx(ctx, repos, b, in)
		return err
	})
	return mov, err
}

// ApplyMovementInTx igual que ApplyMovement dentro de la transacción del caller.
// El caller debe tener el candado del artículo (Atomic).
func (l *Ledger) ApplyMovementInTx(ctx context.Context, repos repository.Repositories, b *Batch, in MovementInput) (*entity.StockMovement, error) {
	if in.Actor == "" || !in.Reference.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if in.Type == entity.MovementReceipt {
		// una recepción siempre crea lote nuevo
		return nil, fmt.Errorf("RECEIPT sobre lote existente: %w", domain.ErrInvalidInput)
	}
	signed, err := inventory.SignedQuantity(in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}
	lot, err := repos.Lots.GetByID(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrLotNotFound
	}
	if in.Type == entity.MovementRelease || in.Type == entity.MovementConsume {
		if err := l.checkOutstanding(ctx, repos, lot, in); err != nil {
			return nil, err
		}
	}
	return l.apply(ctx, repos, b, lot, in.Type, signed, in.Reference, in.Actor, in.Notes)
}

// checkOutstanding solo se libera o consume lo que la propia referencia tiene reservado en el lote.
func (l *Ledger) checkOutstanding(ctx context.Context, repos repository.Repositories, lot *entity.StockLot, in MovementInput) error {
	res, err := repos.Movements.OutstandingReservations(ctx, lot.ItemID, in.Reference)
	if err != nil {
		return err
	}
	outstanding := decimal.Zero
	for _, r := range res {
		if r.LotID == lot.ID {
			outstanding = outstanding.Add(r.Outstanding)
		}
	}
	if in.Quantity.LessThanOrEqual(outstanding) {
		return nil
	}
	kind := domain.ErrOverRelease
	if in.Type == entity.MovementConsume {
		kind = domain.ErrOverConsumption
	}
	return domain.NewQuantityError(kind, lot.ItemID, in.Reference.ID, in.Quantity, outstanding)
}

// apply valida y aplica el movimiento al lote, guarda la foto y agrega el movimiento.
func (l *Ledger) apply(
	ctx context.Context, repos repository.Repositories, b *Batch, lot *entity.StockLot,
	t entity.MovementType, signed decimal.Decimal, ref entity.Reference, actor, notes string,
) (*entity.StockMovement, error) {
	if err := inventory.ApplyToLot(lot, t, signed); err != nil {
		return nil, err
	}
	lot.UpdatedAt = l.Now()
	if err := repos.Lots.UpdateSnapshot(ctx, lot); err != nil {
		return nil, err
	}
	return l.appendMovement(ctx, repos, b, lot, t, signed, ref, actor, notes)
}

func (l *Ledger) appendMovement(
	ctx context.Context, repos repository.Repositories, b *Batch, lot *entity.StockLot,
	t entity.MovementType, signed decimal.Decimal, ref entity.Reference, actor, notes string,
) (*entity.StockMovement, error) {
	mov := &entity.StockMovement{
		ItemID:    lot.ItemID,
		LotID:     lot.ID,
		Location:  lot.Location,
		Type:      t,
		Quantity:  signed,
		UnitCost:  lot.UnitCost,
		Reference: ref,
		Actor:     actor,
		Notes:     notes,
		CreatedAt: l.Now(),
	}
	if err := repos.Movements.Append(ctx, mov); err != nil {
		return nil, err
	}
	b.Add(entity.NewMovementPosted(mov))
	return mov, nil
}

// CorrectionInput corrección de cantidad física por artículo y ubicación (ajuste o conteo).
type CorrectionInput struct {
	ItemID    string
	Location  string
	Type      entity.MovementType // ADJUSTMENT o COUNT_CORRECTION
	Quantity  decimal.Decimal     // delta con signo
	Reference entity.Reference
	Actor     string
	Notes     string
}

// Adjust aplica una corrección manual como unidad atómica.
func (l *Ledger) Adjust(ctx context.Context, in CorrectionInput) ([]*entity.StockMovement, error) {
	var movs []*entity.StockMovement
	err := l.Atomic(ctx, []string{in.ItemID}, func(repos repository.Repositories, b *Batch) error {
		var err error
		movs, err = l.CorrectInTx(ctx, repos, b, in)
		return err
	})
	return movs, err
}

// CorrectInTx reparte una corrección sobre los lotes de la ubicación.
// Negativa: descuenta del disponible del lote más antiguo y se derrama a los siguientes;
// si el total no alcanza falla con InsufficientStock sin aplicar nada.
// Positiva: suma al lote más antiguo con disponible; sin lote con disponible crea un lote
// de ajuste con costo cero.
func (l *Ledger) CorrectInTx(ctx context.Context, repos repository.Repositories, b *Batch, in CorrectionInput) ([]*entity.StockMovement, error) {
	if !in.Type.Signed() {
		return nil, fmt.Errorf("tipo %s no es corrección: %w", in.Type, domain.ErrInvalidInput)
	}
	if in.ItemID == "" || in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Reference.Type == "" {
		in.Reference.Type = entity.RefManual
	}
	if !in.Reference.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := inventory.SignedQuantity(in.Type, in.Quantity); err != nil {
		return nil, err
	}
	item, err := repos.Items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if !item.TracksInventory {
		return nil, fmt.Errorf("item %s no lleva inventario: %w", item.ID, domain.ErrInvalidInput)
	}
	location := l.Location(in.Location)
	lots, err := repos.Lots.ListByItem(ctx, in.ItemID, location)
	if err != nil {
		return nil, err
	}
	inventory.SortFIFO(lots)

	if in.Quantity.IsPositive() {
		for _, lot := range lots {
			if lot.Available.IsPositive() {
				mov, err := l.apply(ctx, repos, b, lot, in.Type, in.Quantity, in.Reference, in.Actor, in.Notes)
				if err != nil {
					return nil, err
				}
				return []*entity.StockMovement{mov}, nil
			}
		}
		_, mov, err := l.newLot(ctx, repos, b, in.ItemID, location, in.Type, in.Quantity, decimal.Zero,
			l.Now(), in.Reference, in.Actor, in.Notes)
		if err != nil {
			return nil, err
		}
		return []*entity.StockMovement{mov}, nil
	}

	need := in.Quantity.Neg()
	plan, shortfall := inventory.PlanFIFO(lots, need)
	if shortfall.IsPositive() {
		return nil, domain.NewQuantityError(domain.ErrInsufficientStock, in.ItemID, "", need, need.Sub(shortfall))
	}
	byID := lotIndex(lots)
	movs := make([]*entity.StockMovement, 0, len(plan))
	for _, p := range plan {
		mov, err := l.apply(ctx, repos, b, byID[p.LotID], in.Type, p.Quantity.Neg(), in.Reference, in.Actor, in.Notes)
		if err != nil {
			return nil, err
		}
		movs = append(movs, mov)
	}
	return movs, nil
}

func lotIndex(lots []*entity.StockLot) map[string]*entity.StockLot {
	m := make(map[string]*entity.StockLot, len(lots))
	for _, lot := range lots {
		m[lot.ID] = lot
	}
	return m
}

// Snapshot agregado del artículo. location vacío = todas las ubicaciones.
func (l *Ledger) Snapshot(ctx context.Context, itemID, location string) (entity.StockSnapshot, error) {
	var snap entity.StockSnapshot
	err := l.Read(ctx, func(repos repository.Repositories) error {
		var err error
		snap, err = l.SnapshotInTx(ctx, repos, itemID, location)
		return err
	})
	return snap, err
}

// SnapshotInTx igual que Snapshot; ve los movimientos ya aplicados en la misma transacción.
func (l *Ledger) SnapshotInTx(ctx context.Context, repos repository.Repositories, itemID, location string) (entity.StockSnapshot, error) {
	item, err := repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return entity.StockSnapshot{}, err
	}
	if item == nil {
		return entity.StockSnapshot{}, domain.ErrNotFound
	}
	lots, err := repos.Lots.ListByItem(ctx, itemID, location)
	if err != nil {
		return entity.StockSnapshot{}, err
	}
	return inventory.Aggregate(itemID, location, lots), nil
}

// Lots lista los lotes del artículo en orden FIFO.
func (l *Ledger) Lots(ctx context.Context, itemID, location string) ([]*entity.StockLot, error) {
	var lots []*entity.StockLot
	err := l.Read(ctx, func(repos repository.Repositories) error {
		var err error
		lots, err = repos.Lots.ListByItem(ctx, itemID, location)
		return err
	})
	return lots, err
}

// Movements historial del artículo en orden de secuencia.
func (l *Ledger) Movements(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	var movs []*entity.StockMovement
	err := l.Read(ctx, func(repos repository.Repositories) error {
		var err error
		movs, err = repos.Movements.ListByItem(ctx, itemID, limit, offset)
		return err
	})
	return movs, err
}

// VerifyReport resultado de reconstruir el artículo desde su historial.
type VerifyReport struct {
	ItemID    string
	Movements int
	Lots      int
	Drifts    []inventory.LotDrift
}

// Consistent true si ningún lote difiere del replay.
func (r *VerifyReport) Consistent() bool { return len(r.Drifts) == 0 }

// Verify reproduce todos los movimientos del artículo y reporta los lotes cuya foto no coincide.
func (l *Ledger) Verify(ctx context.Context, itemID string) (*VerifyReport, error) {
	report := &VerifyReport{ItemID: itemID}
	err := l.Read(ctx, func(repos repository.Repositories) error {
		item, err := repos.Items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		lots, err := repos.Lots.ListByItem(ctx, itemID, "")
		if err != nil {
			return err
		}
		movs, err := repos.Movements.ListByItem(ctx, itemID, 0, 0)
		if err != nil {
			return err
		}
		replayed, err := inventory.Replay(movs)
		if err != nil {
			return err
		}
		report.Movements = len(movs)
		report.Lots = len(lots)
		report.Drifts = inventory.Diff(lots, replayed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent() {
		l.log.Error().Str("item_id", itemID).Int("drifts", len(report.Drifts)).Msg("foto de lotes difiere del libro")
	}
	return report, nil
}
