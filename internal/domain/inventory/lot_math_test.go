package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLot(id string, seq int64, available string, received time.Time) *entity.StockLot {
	q := d(available)
	return &entity.StockLot{
		ID:           id,
		Seq:          seq,
		ItemID:       "item-1",
		Location:     "MAIN",
		Received:     q,
		Available:    q,
		Reserved:     decimal.Zero,
		Consumed:     decimal.Zero,
		UnitCost:     d("10"),
		ReceivedDate: received,
	}
}

func TestSignedQuantity_Convencion(t *testing.T) {
	cases := []struct {
		name string
		t    entity.MovementType
		in   string
		want string
		err  error
	}{
		{"recepcion positiva", entity.MovementReceipt, "5", "5", nil},
		{"reserva positiva", entity.MovementReserve, "5", "5", nil},
		{"liberacion se niega", entity.MovementRelease, "5", "-5", nil},
		{"consumo se niega", entity.MovementConsume, "5", "-5", nil},
		{"ajuste negativo se respeta", entity.MovementAdjustment, "-3", "-3", nil},
		{"correccion positiva se respeta", entity.MovementCountCorrection, "2", "2", nil},
		{"recepcion cero", entity.MovementReceipt, "0", "", domain.ErrInvalidQuantity},
		{"consumo negativo", entity.MovementConsume, "-1", "", domain.ErrInvalidQuantity},
		{"ajuste cero", entity.MovementAdjustment, "0", "", domain.ErrInvalidQuantity},
		{"tipo desconocido", entity.MovementType("TRANSFER"), "1", "", domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := inventory.SignedQuantity(tc.t, d(tc.in))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tc.want)), "got %s", got)
		})
	}
}

func TestApplyToLot_ReservaLiberaConsume(t *testing.T) {
	lot := newLot("L1", 1, "10", time.Now())

	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementReserve, d("6")))
	assert.True(t, lot.Available.Equal(d("4")))
	assert.True(t, lot.Reserved.Equal(d("6")))

	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementRelease, d("-2")))
	assert.True(t, lot.Available.Equal(d("6")))
	assert.True(t, lot.Reserved.Equal(d("4")))

	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementConsume, d("-4")))
	assert.True(t, lot.Reserved.IsZero())
	assert.True(t, lot.Consumed.Equal(d("4")))
	assert.True(t, inventory.CheckLot(lot), "el invariante del lote debe mantenerse")
}

func TestApplyToLot_RechazaSinModificar(t *testing.T) {
	lot := newLot("L1", 1, "3", time.Now())

	err := inventory.ApplyToLot(lot, entity.MovementReserve, d("5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var qe *domain.QuantityError
	require.True(t, errors.As(err, &qe))
	assert.True(t, qe.Available.Equal(d("3")))
	assert.True(t, lot.Available.Equal(d("3")), "un error no debe dejar cambios parciales")

	err = inventory.ApplyToLot(lot, entity.MovementRelease, d("-1"))
	assert.ErrorIs(t, err, domain.ErrOverRelease)

	err = inventory.ApplyToLot(lot, entity.MovementAdjustment, d("-4"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, inventory.CheckLot(lot))
}

func TestApplyToLot_CorreccionesMuevenRecibidoYConsumido(t *testing.T) {
	lot := newLot("L1", 1, "10", time.Now())

	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementCountCorrection, d("2")))
	assert.True(t, lot.Received.Equal(d("12")))
	require.NoError(t, inventory.ApplyToLot(lot, entity.MovementAdjustment, d("-5")))
	assert.True(t, lot.Consumed.Equal(d("5")))
	assert.True(t, lot.Available.Equal(d("7")))
	assert.True(t, inventory.CheckLot(lot))
}
