package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
)

func mv(seq int64, lot string, t entity.MovementType, q string) *entity.StockMovement {
	return &entity.StockMovement{
		Seq: seq, ItemID: "item-1", LotID: lot, Location: "MAIN",
		Type: t, Quantity: d(q), UnitCost: d("10"), CreatedAt: time.Now(),
	}
}

func TestReplay_ReconstruyeLotes(t *testing.T) {
	movements := []*entity.StockMovement{
		mv(4, "L1", entity.MovementConsume, "-3"),
		mv(1, "L1", entity.MovementReceipt, "10"),
		mv(2, "L2", entity.MovementReceipt, "5"),
		mv(3, "L1", entity.MovementReserve, "4"),
		mv(5, "L2", entity.MovementCountCorrection, "-1"),
	}

	lots, err := inventory.Replay(movements)
	require.NoError(t, err)
	require.Len(t, lots, 2)

	l1 := lots["L1"]
	assert.True(t, l1.Available.Equal(d("6")))
	assert.True(t, l1.Reserved.Equal(d("1")))
	assert.True(t, l1.Consumed.Equal(d("3")))
	assert.True(t, lots["L2"].Available.Equal(d("4")))
	for _, l := range lots {
		assert.True(t, inventory.CheckLot(l))
	}
}

func TestReplay_DetectaHistoriaInvalida(t *testing.T) {
	_, err := inventory.Replay([]*entity.StockMovement{
		mv(1, "L1", entity.MovementReceipt, "2"),
		mv(2, "L1", entity.MovementReserve, "3"),
	})
	assert.Error(t, err)
}

func TestDiff_ReportaDeriva(t *testing.T) {
	replayed, err := inventory.Replay([]*entity.StockMovement{mv(1, "L1", entity.MovementReceipt, "10")})
	require.NoError(t, err)

	ok := newLot("L1", 1, "10", time.Now())
	assert.Empty(t, inventory.Diff([]*entity.StockLot{ok}, replayed))

	bad := newLot("L1", 1, "9", time.Now())
	drifts := inventory.Diff([]*entity.StockLot{bad}, replayed)
	require.Len(t, drifts, 1)
	assert.Equal(t, "L1", drifts[0].LotID)
}

func TestAggregate_ValorYCostoPromedio(t *testing.T) {
	a := newLot("a", 1, "10", time.Now())
	b := newLot("b", 2, "10", time.Now())
	b.UnitCost = d("20")
	require.NoError(t, inventory.ApplyToLot(b, entity.MovementReserve, d("4")))

	snap := inventory.Aggregate("item-1", "MAIN", []*entity.StockLot{a, b})
	assert.True(t, snap.OnHand.Equal(d("20")))
	assert.True(t, snap.Available.Equal(d("16")))
	assert.True(t, snap.Reserved.Equal(d("4")))
	assert.True(t, snap.Value.Equal(d("300")))
	assert.True(t, snap.AverageCost.Equal(d("15")))
	assert.Equal(t, 2, snap.LotCount)
}

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	got := inventory.CostCalculator(d("10"), d("100"), d("10"), d("200"))
	assert.True(t, got.Equal(d("150")))
	assert.True(t, inventory.CostCalculator(d("0"), d("0"), d("0"), d("5")).IsZero())
}
