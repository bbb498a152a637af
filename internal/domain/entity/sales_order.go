package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado de un pedido de venta. Nunca se almacena: siempre se proyecta
// a partir de los contadores de línea y las banderas del ciclo de vida.
type OrderStatus string

const (
	OrderDraft            OrderStatus = "DRAFT"
	OrderPendingApproval  OrderStatus = "PENDING_APPROVAL"
	OrderApproved         OrderStatus = "APPROVED"
	OrderOnHold           OrderStatus = "ON_HOLD"
	OrderProcessing       OrderStatus = "PROCESSING"
	OrderPartiallyShipped OrderStatus = "PARTIALLY_SHIPPED"
	OrderShipped          OrderStatus = "SHIPPED"
	OrderDelivered        OrderStatus = "DELIVERED"
	OrderInvoiced         OrderStatus = "INVOICED"
	OrderCompleted        OrderStatus = "COMPLETED"
	OrderCancelled        OrderStatus = "CANCELLED"
)

// Terminal indica si el estado ya no admite transiciones.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// SalesOrder cabecera del pedido con sus líneas y banderas de ciclo de vida.
type SalesOrder struct {
	ID               string
	Number           string
	CustomerID       string
	Location         string // ubicación única desde la que se reserva
	Lines            []*SalesOrderLine
	SubmittedAt      *time.Time
	ApprovedAt       *time.Time
	ProcessingAt     *time.Time
	OnHold           bool
	HoldReason       string
	DeliveredAt      *time.Time
	PaymentSettledAt *time.Time
	PaymentReference string
	CancelledAt      *time.Time
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Line busca una línea por ID.
func (o *SalesOrder) Line(id string) *SalesOrderLine {
	for _, l := range o.Lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// SalesOrderLine línea con sus cuatro contadores.
// Invariante: 0 <= Reserved <= Ordered, Shipped <= Reserved, Invoiced <= Shipped.
type SalesOrderLine struct {
	ID        string
	OrderID   string
	LineNo    int
	ItemID    string
	Ordered   decimal.Decimal
	Reserved  decimal.Decimal
	Shipped   decimal.Decimal
	Invoiced  decimal.Decimal
	UnitPrice decimal.Decimal
	Shortfall decimal.Decimal // faltante de la última reserva
}

// Reference referencia del libro para las reservas de esta línea.
func (l *SalesOrderLine) Reference() Reference {
	return Reference{Type: RefSalesOrderLine, ID: l.ID}
}

// LineQuantity cantidad aplicada a una línea en un despacho o factura.
type LineQuantity struct {
	LineID   string
	Quantity decimal.Decimal
}
