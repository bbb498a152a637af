package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
)

func TestPlanFIFO_TomaDelMasAntiguo(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newest := newLot("nuevo", 3, "10", base.Add(48*time.Hour))
	oldest := newLot("viejo", 1, "4", base)
	middle := newLot("medio", 2, "5", base.Add(24*time.Hour))
	middle.UnitCost = d("12")

	plan, shortfall := inventory.PlanFIFO([]*entity.StockLot{newest, oldest, middle}, d("7"))

	assert.True(t, shortfall.IsZero())
	require.Len(t, plan, 2)
	assert.Equal(t, "viejo", plan[0].LotID)
	assert.True(t, plan[0].Quantity.Equal(d("4")))
	assert.Equal(t, "medio", plan[1].LotID)
	assert.True(t, plan[1].Quantity.Equal(d("3")))
	assert.True(t, plan[1].UnitCost.Equal(d("12")), "cada tramo conserva el costo de su lote")
}

func TestPlanFIFO_EmpateDeFechaUsaSecuencia(t *testing.T) {
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newLot("b", 2, "5", same)
	a := newLot("a", 1, "5", same)

	plan, _ := inventory.PlanFIFO([]*entity.StockLot{b, a}, d("1"))
	require.Len(t, plan, 1)
	assert.Equal(t, "a", plan[0].LotID)
}

func TestPlanFIFO_FaltanteYLotesVacios(t *testing.T) {
	now := time.Now()
	empty := newLot("vacio", 1, "0", now)
	some := newLot("con", 2, "3", now)

	plan, shortfall := inventory.PlanFIFO([]*entity.StockLot{empty, some}, d("5"))
	require.Len(t, plan, 1)
	assert.Equal(t, "con", plan[0].LotID)
	assert.True(t, shortfall.Equal(d("2")))
}

func TestPlanFromReservations_RespetaSaldoPorLote(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	res := []entity.LotReservation{
		{LotID: "L2", ReceivedDate: base.Add(time.Hour), LotSeq: 2, Outstanding: d("3"), UnitCost: d("11")},
		{LotID: "L1", ReceivedDate: base, LotSeq: 1, Outstanding: d("2"), UnitCost: d("10")},
	}

	plan, rest := inventory.PlanFromReservations(res, d("4"))
	assert.True(t, rest.IsZero())
	require.Len(t, plan, 2)
	assert.Equal(t, "L1", plan[0].LotID)
	assert.True(t, plan[1].Quantity.Equal(d("2")))
	assert.True(t, inventory.TotalOutstanding(res).Equal(d("5")))

	_, rest = inventory.PlanFromReservations(res, d("6"))
	assert.True(t, rest.Equal(d("1")))
}
