package inventory

import (
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// LotsValue valor del stock físico (disponible + reservado) a costo de cada lote y su
// costo promedio ponderado, acumulando lote a lote con CostCalculator.
func LotsValue(lots []*entity.StockLot) (value, averageCost decimal.Decimal) {
	qty := decimal.Zero
	averageCost = decimal.Zero
	value = decimal.Zero
	for _, l := range lots {
		onHand := l.OnHand()
		if !onHand.IsPositive() {
			continue
		}
		averageCost = CostCalculator(qty, averageCost, onHand, l.UnitCost)
		qty = qty.Add(onHand)
		value = value.Add(onHand.Mul(l.UnitCost))
	}
	return value, averageCost.Round(4)
}

// NextLotCost costo del próximo lote que se tomaría por FIFO (0 si no hay disponible).
func NextLotCost(lots []*entity.StockLot) decimal.Decimal {
	plan, _ := PlanFIFO(lots, decimal.NewFromInt(1))
	if len(plan) == 0 {
		return decimal.Zero
	}
	return plan[0].UnitCost
}
