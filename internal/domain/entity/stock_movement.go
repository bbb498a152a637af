package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo cerrado de movimiento del libro de stock.
type MovementType string

// Tipos de movimiento del libro.
const (
	MovementReceipt         MovementType = "RECEIPT"          // entrada de un lote nuevo
	MovementReserve         MovementType = "RESERVE"          // disponible -> reservado
	MovementRelease         MovementType = "RELEASE"          // reservado -> disponible
	MovementConsume         MovementType = "CONSUME"          // salida definitiva de lo reservado (despacho)
	MovementAdjustment      MovementType = "ADJUSTMENT"       // ajuste manual (+/-)
	MovementCountCorrection MovementType = "COUNT_CORRECTION" // corrección por conteo físico (+/-)
)

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementReserve, MovementRelease, MovementConsume,
		MovementAdjustment, MovementCountCorrection:
		return true
	}
	return false
}

// Signed indica si el tipo admite cantidad con signo libre (correcciones).
func (t MovementType) Signed() bool {
	return t == MovementAdjustment || t == MovementCountCorrection
}

// ParseMovementType valida un string externo contra el conjunto cerrado.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.Valid() {
		return "", fmt.Errorf("tipo de movimiento desconocido %q", s)
	}
	return t, nil
}

// ReferenceType tipo cerrado del documento que origina un movimiento.
type ReferenceType string

const (
	RefPurchaseReceipt ReferenceType = "PURCHASE_RECEIPT"
	RefSalesOrderLine  ReferenceType = "SALES_ORDER_LINE"
	RefPhysicalCount   ReferenceType = "PHYSICAL_COUNT"
	RefManual          ReferenceType = "MANUAL"
)

// Valid indica si el tipo de referencia pertenece al conjunto cerrado.
func (t ReferenceType) Valid() bool {
	switch t {
	case RefPurchaseReceipt, RefSalesOrderLine, RefPhysicalCount, RefManual:
		return true
	}
	return false
}

// Reference vincula movimientos con su documento de origen. Las reservas de una línea
// de pedido se rastrean por esta referencia para liberar exactamente los mismos lotes.
type Reference struct {
	Type ReferenceType `json:"type"`
	ID   string        `json:"id"`
}

func (r Reference) String() string { return string(r.Type) + ":" + r.ID }

// StockMovement registro inmutable del libro.
//
// Convención de signo: RECEIPT +q, CONSUME -q, ADJUSTMENT/COUNT_CORRECTION ±q (delta físico);
// RESERVE +q, RELEASE -q (delta de reservado). Así la reserva pendiente de una referencia
// sobre un lote es la suma de sus RESERVE/RELEASE/CONSUME.
type StockMovement struct {
	Seq       int64
	ItemID    string
	LotID     string
	Location  string
	Type      MovementType
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Reference Reference
	Actor     string
	Notes     string
	CreatedAt time.Time
}

// TotalCost valor del movimiento a costo del lote.
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitCost)
}

// LotReservation reserva pendiente de una referencia sobre un lote.
type LotReservation struct {
	LotID        string
	ReceivedDate time.Time
	LotSeq       int64
	Outstanding  decimal.Decimal
	UnitCost     decimal.Decimal
}
