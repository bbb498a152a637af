package inventory

import (
	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SignedQuantity normaliza la cantidad de un movimiento según la convención de signo del libro.
// Para RECEIPT/RESERVE/RELEASE/CONSUME se exige q > 0 y el tipo fija el signo;
// para ADJUSTMENT/COUNT_CORRECTION se exige q != 0 y se respeta el signo recibido.
func SignedQuantity(t entity.MovementType, q decimal.Decimal) (decimal.Decimal, error) {
	if !t.Valid() {
		return decimal.Zero, domain.ErrInvalidInput
	}
	if t.Signed() {
		if q.IsZero() {
			return decimal.Zero, domain.ErrInvalidQuantity
		}
		return q, nil
	}
	if !q.GreaterThan(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	switch t {
	case entity.MovementRelease, entity.MovementConsume:
		return q.Neg(), nil
	}
	return q, nil
}

// ApplyToLot aplica un movimiento (cantidad ya con signo) sobre el lote.
// Rechaza sin modificar el lote cualquier efecto que deje un balde en negativo.
func ApplyToLot(lot *entity.StockLot, t entity.MovementType, signed decimal.Decimal) error {
	received, available, reserved, consumed := lot.Received, lot.Available, lot.Reserved, lot.Consumed
	switch t {
	case entity.MovementReceipt:
		received = received.Add(signed)
		available = available.Add(signed)
	case entity.MovementReserve:
		available = available.Sub(signed)
		reserved = reserved.Add(signed)
		if available.IsNegative() {
			return domain.NewQuantityError(domain.ErrInsufficientStock, lot.ItemID, "", signed, lot.Available)
		}
	case entity.MovementRelease:
		reserved = reserved.Add(signed)
		available = available.Sub(signed)
		if reserved.IsNegative() {
			return domain.NewQuantityError(domain.ErrOverRelease, lot.ItemID, "", signed.Neg(), lot.Reserved)
		}
	case entity.MovementConsume:
		reserved = reserved.Add(signed)
		consumed = consumed.Sub(signed)
		if reserved.IsNegative() {
			return domain.NewQuantityError(domain.ErrInsufficientStock, lot.ItemID, "", signed.Neg(), lot.Reserved)
		}
	case entity.MovementAdjustment, entity.MovementCountCorrection:
		if signed.IsPositive() {
			received = received.Add(signed)
			available = available.Add(signed)
		} else {
			available = available.Add(signed)
			consumed = consumed.Sub(signed)
			if available.IsNegative() {
				return domain.NewQuantityError(domain.ErrInsufficientStock, lot.ItemID, "", signed.Neg(), lot.Available)
			}
		}
	default:
		return domain.ErrInvalidInput
	}
	lot.Received, lot.Available, lot.Reserved, lot.Consumed = received, available, reserved, consumed
	return nil
}

// CheckLot verifica el invariante del lote.
func CheckLot(lot *entity.StockLot) bool {
	if lot.Available.IsNegative() || lot.Reserved.IsNegative() {
		return false
	}
	return lot.Available.Add(lot.Reserved).Equal(lot.Received.Sub(lot.Consumed))
}
