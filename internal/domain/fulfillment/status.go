// Package fulfillment contiene la proyección pura del estado de un pedido.
// El estado nunca se guarda: se deriva de los contadores de línea y de las banderas.
package fulfillment

import (
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DeriveStatus proyecta el estado del pedido. El primer caso que aplica gana.
func DeriveStatus(o *entity.SalesOrder) entity.OrderStatus {
	switch {
	case o.CancelledAt != nil:
		return entity.OrderCancelled
	case o.ApprovedAt == nil:
		if o.SubmittedAt != nil {
			return entity.OrderPendingApproval
		}
		return entity.OrderDraft
	case FullyInvoiced(o) && o.PaymentSettledAt != nil:
		return entity.OrderCompleted
	case FullyInvoiced(o):
		return entity.OrderInvoiced
	case o.OnHold:
		return entity.OrderOnHold
	case FullyShipped(o):
		if o.DeliveredAt != nil {
			return entity.OrderDelivered
		}
		return entity.OrderShipped
	case AnyShipped(o):
		return entity.OrderPartiallyShipped
	case o.ProcessingAt != nil:
		return entity.OrderProcessing
	default:
		return entity.OrderApproved
	}
}

// activeLines líneas con cantidad pedida (las reducidas a cero por cancelación parcial no cuentan).
func activeLines(o *entity.SalesOrder) []*entity.SalesOrderLine {
	out := make([]*entity.SalesOrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		if l.Ordered.IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

// FullyShipped todas las líneas activas despachadas por completo.
func FullyShipped(o *entity.SalesOrder) bool {
	lines := activeLines(o)
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if l.Shipped.LessThan(l.Ordered) {
			return false
		}
	}
	return true
}

// FullyInvoiced todas las líneas activas facturadas por completo.
func FullyInvoiced(o *entity.SalesOrder) bool {
	lines := activeLines(o)
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if l.Invoiced.LessThan(l.Ordered) {
			return false
		}
	}
	return true
}

// AnyShipped alguna línea tiene despachos.
func AnyShipped(o *entity.SalesOrder) bool {
	for _, l := range o.Lines {
		if l.Shipped.IsPositive() {
			return true
		}
	}
	return false
}

// Shippable cantidad que aún puede despacharse de la línea.
func Shippable(l *entity.SalesOrderLine) decimal.Decimal {
	return l.Reserved.Sub(l.Shipped)
}

// Invoiceable cantidad despachada aún sin facturar.
func Invoiceable(l *entity.SalesOrderLine) decimal.Decimal {
	return l.Shipped.Sub(l.Invoiced)
}

// Unreserved cantidad pedida sin reserva.
func Unreserved(l *entity.SalesOrderLine) decimal.Decimal {
	return l.Ordered.Sub(l.Reserved)
}

// CheckLine verifica los invariantes de contadores de la línea.
func CheckLine(l *entity.SalesOrderLine) bool {
	return !l.Reserved.IsNegative() &&
		l.Reserved.LessThanOrEqual(l.Ordered) &&
		l.Shipped.LessThanOrEqual(l.Reserved) &&
		!l.Invoiced.IsNegative() &&
		l.Invoiced.LessThanOrEqual(l.Shipped)
}

// CanShip estados desde los que se admite un despacho.
func CanShip(s entity.OrderStatus) bool {
	return s == entity.OrderApproved || s == entity.OrderProcessing || s == entity.OrderPartiallyShipped
}

// CanInvoice estados desde los que se admite facturar; el límite real lo da lo despachado.
func CanInvoice(s entity.OrderStatus) bool {
	switch s {
	case entity.OrderDraft, entity.OrderPendingApproval, entity.OrderCancelled, entity.OrderCompleted:
		return false
	}
	return true
}
