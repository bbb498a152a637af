package fulfillment_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/fulfillment"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func approvedOrder(lines ...*entity.SalesOrderLine) *entity.SalesOrder {
	now := time.Now()
	return &entity.SalesOrder{ID: "o1", SubmittedAt: &now, ApprovedAt: &now, Lines: lines}
}

func line(ordered, reserved, shipped, invoiced string) *entity.SalesOrderLine {
	return &entity.SalesOrderLine{
		ID: "l", Ordered: d(ordered), Reserved: d(reserved), Shipped: d(shipped), Invoiced: d(invoiced),
	}
}

func TestDeriveStatus_Proyeccion(t *testing.T) {
	now := time.Now()

	draft := &entity.SalesOrder{Lines: []*entity.SalesOrderLine{line("5", "0", "0", "0")}}
	assert.Equal(t, entity.OrderDraft, fulfillment.DeriveStatus(draft))

	draft.SubmittedAt = &now
	assert.Equal(t, entity.OrderPendingApproval, fulfillment.DeriveStatus(draft))

	o := approvedOrder(line("10", "10", "0", "0"))
	assert.Equal(t, entity.OrderApproved, fulfillment.DeriveStatus(o))

	o.ProcessingAt = &now
	assert.Equal(t, entity.OrderProcessing, fulfillment.DeriveStatus(o))

	o.Lines[0].Shipped = d("4")
	assert.Equal(t, entity.OrderPartiallyShipped, fulfillment.DeriveStatus(o))

	o.OnHold = true
	assert.Equal(t, entity.OrderOnHold, fulfillment.DeriveStatus(o))
	o.OnHold = false

	o.Lines[0].Shipped = d("10")
	assert.Equal(t, entity.OrderShipped, fulfillment.DeriveStatus(o))

	o.DeliveredAt = &now
	assert.Equal(t, entity.OrderDelivered, fulfillment.DeriveStatus(o))

	o.Lines[0].Invoiced = d("10")
	assert.Equal(t, entity.OrderInvoiced, fulfillment.DeriveStatus(o))

	o.PaymentSettledAt = &now
	assert.Equal(t, entity.OrderCompleted, fulfillment.DeriveStatus(o))

	o.CancelledAt = &now
	assert.Equal(t, entity.OrderCancelled, fulfillment.DeriveStatus(o), "cancelado gana sobre todo")
}

func TestDeriveStatus_LineasEnCeroNoCuentan(t *testing.T) {
	done := line("4", "4", "4", "0")
	cut := line("0", "0", "0", "0")
	o := approvedOrder(done, cut)

	assert.Equal(t, entity.OrderShipped, fulfillment.DeriveStatus(o))
	assert.True(t, fulfillment.FullyShipped(o))
}

func TestCheckLine_Invariantes(t *testing.T) {
	assert.True(t, fulfillment.CheckLine(line("10", "8", "5", "3")))
	assert.False(t, fulfillment.CheckLine(line("10", "11", "0", "0")), "reservado > pedido")
	assert.False(t, fulfillment.CheckLine(line("10", "5", "6", "0")), "despachado > reservado")
	assert.False(t, fulfillment.CheckLine(line("10", "5", "5", "6")), "facturado > despachado")
}

func TestCanShipYCanInvoice(t *testing.T) {
	assert.True(t, fulfillment.CanShip(entity.OrderApproved))
	assert.True(t, fulfillment.CanShip(entity.OrderPartiallyShipped))
	assert.False(t, fulfillment.CanShip(entity.OrderOnHold))
	assert.False(t, fulfillment.CanShip(entity.OrderShipped))

	assert.True(t, fulfillment.CanInvoice(entity.OrderPartiallyShipped))
	assert.True(t, fulfillment.CanInvoice(entity.OrderDelivered))
	assert.False(t, fulfillment.CanInvoice(entity.OrderPendingApproval))
	assert.False(t, fulfillment.CanInvoice(entity.OrderCancelled))
}

func TestCantidadesDerivadas(t *testing.T) {
	l := line("10", "8", "5", "3")
	assert.True(t, fulfillment.Shippable(l).Equal(d("3")))
	assert.True(t, fulfillment.Invoiceable(l).Equal(d("2")))
	assert.True(t, fulfillment.Unreserved(l).Equal(d("2")))
}
