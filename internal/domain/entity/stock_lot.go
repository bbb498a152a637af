package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLot es una recepción concreta de inventario con su propio costo (costeo FIFO).
// Solo el libro de stock la modifica, y nunca se elimina.
//
// Invariante: Available + Reserved == Received - Consumed, con Available >= 0 y Reserved >= 0.
// Received acumula toda entrada (RECEIPT y correcciones positivas); Consumed toda salida
// (CONSUME y correcciones negativas).
type StockLot struct {
	ID           string
	Seq          int64 // orden de creación; desempata lotes con la misma fecha de recepción
	ItemID       string
	Location     string
	Received     decimal.Decimal
	Available    decimal.Decimal
	Reserved     decimal.Decimal
	Consumed     decimal.Decimal
	UnitCost     decimal.Decimal
	ReceivedDate time.Time
	UpdatedAt    time.Time
}

// OnHand cantidad física del lote (disponible + reservada).
func (l *StockLot) OnHand() decimal.Decimal {
	return l.Available.Add(l.Reserved)
}

// LotAllocation cantidad tomada de un lote concreto.
type LotAllocation struct {
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// StockSnapshot agregado de un artículo (o artículo+ubicación) sobre todos sus lotes.
type StockSnapshot struct {
	ItemID       string
	Location     string // vacío = todas las ubicaciones
	Received     decimal.Decimal
	Available    decimal.Decimal
	Reserved     decimal.Decimal
	Consumed     decimal.Decimal
	OnHand       decimal.Decimal
	Value        decimal.Decimal // valor del stock físico a costo de cada lote
	AverageCost  decimal.Decimal // costo promedio ponderado del stock restante
	LotCount     int
}
