package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

func TestReceive_CreaLoteYMovimiento(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)

	lot := f.receive(t, "A", "100", "10", time.Time{})
	assert.True(t, lot.Available.Equal(d("100")))
	assert.Equal(t, "MAIN", lot.Location, "sin ubicación se usa la ubicación por defecto")

	snap, err := f.ledger.Snapshot(context.Background(), "A", "")
	require.NoError(t, err)
	assert.True(t, snap.Available.Equal(d("100")))
	assert.True(t, snap.Value.Equal(d("1000")))

	movs, err := f.ledger.Movements(context.Background(), "A", 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementReceipt, movs[0].Type)
	assert.Equal(t, 1, f.events.count(entity.EventMovementPosted))
}

func TestReceive_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	f.item(t, "SRV", false)
	ctx := context.Background()

	_, err := f.ledger.Receive(ctx, ledger.ReceiveInput{ItemID: "A", Quantity: d("0"), UnitCost: d("1"), Actor: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.ledger.Receive(ctx, ledger.ReceiveInput{ItemID: "A", Quantity: d("1"), UnitCost: d("-1"), Actor: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.ledger.Receive(ctx, ledger.ReceiveInput{ItemID: "X", Quantity: d("1"), UnitCost: d("1"), Actor: actor})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.ledger.Receive(ctx, ledger.ReceiveInput{ItemID: "SRV", Quantity: d("1"), UnitCost: d("1"), Actor: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ledger.Receive(ctx, ledger.ReceiveInput{ItemID: "A", Quantity: d("1"), UnitCost: d("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "toda escritura exige actor")
}

func TestApplyMovement_LoteInexistenteYTipos(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	lot := f.receive(t, "A", "5", "1", time.Time{})
	ctx := context.Background()

	_, err := f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: "no-existe", Type: entity.MovementReserve, Quantity: d("1"), Reference: lineRef("l1"), Actor: actor,
	})
	assert.ErrorIs(t, err, domain.ErrLotNotFound)

	_, err = f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: lot.ID, Type: entity.MovementReserve, Quantity: d("6"), Reference: lineRef("l1"), Actor: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: lot.ID, Type: entity.MovementConsume, Quantity: d("-1"), Reference: lineRef("l1"), Actor: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	mov, err := f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: lot.ID, Type: entity.MovementAdjustment, Quantity: d("-2"),
		Reference: entity.Reference{Type: entity.RefManual, ID: "merma"}, Actor: actor, Notes: "rotura",
	})
	require.NoError(t, err)
	assert.True(t, mov.Quantity.Equal(d("-2")))

	snap, err := f.ledger.Snapshot(ctx, "A", "")
	require.NoError(t, err)
	assert.True(t, snap.Available.Equal(d("3")))
}

func TestApplyMovement_LiberarOConsumirReservaAjena(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	lot := f.receive(t, "A", "20", "2", time.Time{})
	ctx := context.Background()

	_, err := f.engine.Reserve(ctx, ledger.AllocationRequest{ItemID: "A", Quantity: d("10"), Reference: lineRef("owner"), Actor: actor})
	require.NoError(t, err)

	_, err = f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: lot.ID, Type: entity.MovementRelease, Quantity: d("10"), Reference: lineRef("ajena"), Actor: actor,
	})
	assert.ErrorIs(t, err, domain.ErrOverRelease)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	var qe *domain.QuantityError
	require.True(t, errors.As(err, &qe))
	assert.True(t, qe.Available.IsZero(), "la referencia ajena no tiene nada reservado")

	_, err = f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: lot.ID, Type: entity.MovementConsume, Quantity: d("1"), Reference: lineRef("ajena"), Actor: actor,
	})
	assert.ErrorIs(t, err, domain.ErrOverConsumption)

	_, err = f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: lot.ID, Type: entity.MovementRelease, Quantity: d("11"), Reference: lineRef("owner"), Actor: actor,
	})
	assert.ErrorIs(t, err, domain.ErrOverRelease, "tampoco el dueño libera más de lo que tiene en el lote")

	snap, err := f.ledger.Snapshot(ctx, "A", "")
	require.NoError(t, err)
	assert.True(t, snap.Reserved.Equal(d("10")), "la reserva del dueño queda intacta")
	assert.True(t, snap.Available.Equal(d("10")))

	mov, err := f.ledger.ApplyMovement(ctx, ledger.MovementInput{
		LotID: lot.ID, Type: entity.MovementConsume, Quantity: d("10"), Reference: lineRef("owner"), Actor: actor,
	})
	require.NoError(t, err)
	assert.True(t, mov.Quantity.Equal(d("-10")))

	snap, err = f.ledger.Snapshot(ctx, "A", "")
	require.NoError(t, err)
	assert.True(t, snap.Reserved.IsZero())
	assert.True(t, snap.OnHand.Equal(d("10")))
}

func TestVerify_ReplayCoincideConFoto(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.receive(t, "A", "10", "5", base)
	f.receive(t, "A", "20", "6", base.Add(time.Hour))

	_, err := f.engine.Reserve(ctx, ledger.AllocationRequest{ItemID: "A", Quantity: d("15"), Reference: lineRef("l1"), Actor: actor})
	require.NoError(t, err)
	_, err = f.engine.Consume(ctx, ledger.AllocationRequest{ItemID: "A", Quantity: d("12"), Reference: lineRef("l1"), Actor: actor})
	require.NoError(t, err)
	_, err = f.engine.Release(ctx, ledger.AllocationRequest{ItemID: "A", Quantity: d("3"), Reference: lineRef("l1"), Actor: actor})
	require.NoError(t, err)
	_, err = f.ledger.Adjust(ctx, ledger.CorrectionInput{ItemID: "A", Type: entity.MovementAdjustment, Quantity: d("-4"), Actor: actor})
	require.NoError(t, err)

	report, err := f.ledger.Verify(ctx, "A")
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "drifts: %+v", report.Drifts)
	assert.Equal(t, 2, report.Lots)

	snap, err := f.ledger.Snapshot(ctx, "A", "")
	require.NoError(t, err)
	assert.True(t, snap.OnHand.Equal(d("14")))
	assert.True(t, snap.Reserved.IsZero())
	assert.True(t, snap.Consumed.Equal(d("16")))
}

func TestCorrectInTx_NegativaSeDerramaYEsTodoONada(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := f.receive(t, "A", "4", "5", base)
	f.receive(t, "A", "10", "6", base.Add(time.Hour))

	_, err := f.ledger.Adjust(ctx, ledger.CorrectionInput{ItemID: "A", Type: entity.MovementCountCorrection, Quantity: d("-20"), Actor: actor})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	snap, _ := f.ledger.Snapshot(ctx, "A", "")
	assert.True(t, snap.Available.Equal(d("14")), "una corrección rechazada no aplica nada")

	movs, err := f.ledger.Adjust(ctx, ledger.CorrectionInput{ItemID: "A", Type: entity.MovementCountCorrection, Quantity: d("-6"), Actor: actor})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, old.ID, movs[0].LotID, "primero el lote más antiguo")
	assert.True(t, movs[0].Quantity.Equal(d("-4")))
	assert.True(t, movs[1].Quantity.Equal(d("-2")))
}

func TestCorrectInTx_PositivaSinLotesCreaLoteCostoCero(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	ctx := context.Background()

	movs, err := f.ledger.Adjust(ctx, ledger.CorrectionInput{ItemID: "A", Type: entity.MovementCountCorrection, Quantity: d("3"), Actor: actor})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].UnitCost.IsZero())

	lots, err := f.ledger.Lots(ctx, "A", "MAIN")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Available.Equal(d("3")))

	report, err := f.ledger.Verify(ctx, "A")
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestAtomic_ErrorNoPublicaEventos(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.ledger.Atomic(ctx, []string{"A"}, func(repos repository.Repositories, b *ledger.Batch) error {
		if _, err := f.ledger.ReceiveInTx(ctx, repos, b, ledger.ReceiveInput{
			ItemID: "A", Quantity: d("5"), UnitCost: d("1"), Actor: actor,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.events.count(entity.EventMovementPosted))

	snap, err := f.ledger.Snapshot(ctx, "A", "")
	require.NoError(t, err)
	assert.True(t, snap.Received.IsZero(), "rollback completo")
}

func TestAtomic_MovimientosVisiblesEnLaMismaTransaccion(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	ctx := context.Background()

	err := f.ledger.Atomic(ctx, []string{"A"}, func(repos repository.Repositories, b *ledger.Batch) error {
		if _, err := f.ledger.ReceiveInTx(ctx, repos, b, ledger.ReceiveInput{
			ItemID: "A", Quantity: d("5"), UnitCost: d("1"), Actor: actor,
		}); err != nil {
			return err
		}
		snap, err := f.ledger.SnapshotInTx(ctx, repos, "A", "")
		if err != nil {
			return err
		}
		assert.True(t, snap.Available.Equal(d("5")))
		return nil
	})
	require.NoError(t, err)
}

// busyLocker devuelve ResourceBusy las primeras n veces.
type busyLocker struct{ n int }

func (b *busyLocker) Lock(context.Context, string) (func(), error) {
	if b.n > 0 {
		b.n--
		return nil, domain.ErrResourceBusy
	}
	return func() {}, nil
}

func TestAtomic_ReintentaResourceBusyAcotado(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	ctx := context.Background()

	l := ledger.New(f.store, &busyLocker{n: 2}, nil, logger.Nop(), ledger.Options{BusyRetries: 2, RetryBackoff: time.Millisecond})
	_, err := l.Receive(ctx, ledger.ReceiveInput{ItemID: "A", Quantity: d("1"), UnitCost: d("1"), Actor: actor})
	assert.NoError(t, err, "dos fallos con dos reintentos debe terminar bien")

	l = ledger.New(f.store, &busyLocker{n: 3}, nil, logger.Nop(), ledger.Options{BusyRetries: 2, RetryBackoff: time.Millisecond})
	_, err = l.Receive(ctx, ledger.ReceiveInput{ItemID: "A", Quantity: d("1"), UnitCost: d("1"), Actor: actor})
	assert.ErrorIs(t, err, domain.ErrResourceBusy)
}

func TestAdjust_RepartoFIFOYValorizacion(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A", true)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := f.receive(t, "A", "10", "10", t0)
	second := f.receive(t, "A", "10", "20", t0.Add(time.Hour))

	movs, err := f.ledger.Adjust(context.Background(), ledger.CorrectionInput{
		ItemID:    "A",
		Type:      entity.MovementAdjustment,
		Quantity:  d("-15"),
		Reference: entity.Reference{Type: entity.RefManual, ID: "AJ-1"},
		Actor:     actor,
		Notes:     "rotura",
	})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, first.ID, movs[0].LotID)
	assert.True(t, movs[0].Quantity.Equal(d("-10")))
	assert.Equal(t, second.ID, movs[1].LotID)
	assert.True(t, movs[1].Quantity.Equal(d("-5")))

	lots, err := f.ledger.Lots(context.Background(), "A", "MAIN")
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.True(t, lots[0].Available.IsZero())
	assert.True(t, lots[1].Available.Equal(d("5")))

	snap, err := f.ledger.Snapshot(context.Background(), "A", "")
	require.NoError(t, err)
	assert.True(t, snap.Value.Equal(d("100")), "quedan 5 a costo 20")
	assert.True(t, snap.AverageCost.Equal(d("20")))

	all, err := f.ledger.Movements(context.Background(), "A", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = f.ledger.Adjust(context.Background(), ledger.CorrectionInput{
		ItemID: "A", Type: entity.MovementReserve, Quantity: d("1"),
		Reference: entity.Reference{Type: entity.RefManual, ID: "AJ-2"}, Actor: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "solo ADJUSTMENT o COUNT_CORRECTION")
}
