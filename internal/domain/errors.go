package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidTransition = errors.New("transición de estado no permitida")

	// Taxonomía del libro de stock y del flujo de pedidos.
	ErrInvalidQuantity     = errors.New("cantidad inválida")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrLotNotFound         = errors.New("lote no encontrado")
	ErrOverConsumption     = errors.New("consumo superior a lo reservado")
	ErrOverRelease         = fmt.Errorf("%w: liberación superior a lo reservado", ErrInvalidQuantity)
	ErrExceedsReserved     = errors.New("cantidad superior a lo reservado")
	ErrExceedsShipped      = errors.New("cantidad superior a lo despachado")
	ErrCannotCancelShipped = errors.New("no se puede cancelar un pedido con despachos")
	ErrNotesRequired       = errors.New("la variación supera el umbral y requiere notas")
	ErrResourceBusy        = errors.New("recurso ocupado, reintente")
)

// QuantityError detalla una violación de límite de cantidad para que la UI muestre
// el faltante exacto ("no se puede despachar 15, solo 10 reservadas").
// Kind es uno de los errores sentinela; errors.Is funciona contra él.
type QuantityError struct {
	Kind      error
	ItemID    string
	LineID    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *QuantityError) Error() string {
	var verb, noun string
	switch e.Kind {
	case ErrExceedsReserved:
		verb, noun = "despachar", "reservadas"
	case ErrExceedsShipped:
		verb, noun = "facturar", "despachadas"
	case ErrOverConsumption:
		verb, noun = "consumir", "reservadas para la referencia"
	case ErrOverRelease:
		verb, noun = "liberar", "reservadas para la referencia"
	case ErrInsufficientStock:
		verb, noun = "tomar", "disponibles"
	default:
		verb, noun = "aplicar", "permitidas"
	}
	msg := fmt.Sprintf("no se puede %s %s, solo %s %s", verb, e.Requested.String(), e.Available.String(), noun)
	if e.ItemID != "" {
		msg += " (item " + e.ItemID + ")"
	}
	return msg
}

func (e *QuantityError) Unwrap() error { return e.Kind }

// NewQuantityError construye un QuantityError.
func NewQuantityError(kind error, itemID, lineID string, requested, available decimal.Decimal) *QuantityError {
	return &QuantityError{Kind: kind, ItemID: itemID, LineID: lineID, Requested: requested, Available: available}
}

// IsRetryable indica si el error es contención transitoria (único caso con reintento automático).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrResourceBusy)
}
