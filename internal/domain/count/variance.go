package count

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultThreshold umbral de variación (%) por encima del cual se exigen notas.
var DefaultThreshold = decimal.NewFromInt(5)

// Variance calcula la variación y su porcentaje respecto a la cantidad de sistema.
// Con sistema en 0: 100% si se contó algo, 0% si no. El porcentaje se redondea a dos decimales.
func Variance(system, counted decimal.Decimal) (variance, pct decimal.Decimal) {
	return counted.Sub(system), percentage(system, counted).Round(2)
}

func percentage(system, counted decimal.Decimal) decimal.Decimal {
	switch {
	case system.IsPositive():
		return counted.Sub(system).Div(system).Mul(hundred)
	case counted.IsPositive():
		return hundred
	default:
		return decimal.Zero
	}
}

// RequiresNotes indica si la variación supera el umbral (en valor absoluto).
// Compara el porcentaje sin redondear: 5.004% supera un umbral de 5 aunque se guarde como 5.00.
func RequiresNotes(system, counted, threshold decimal.Decimal) bool {
	return percentage(system, counted).Abs().GreaterThan(threshold)
}
