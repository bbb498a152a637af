package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// OrderLineRequest línea de un pedido nuevo.
type OrderLineRequest struct {
	ItemID    string          `json:"item_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	Number     string             `json:"number" validate:"omitempty,max=50"`
	CustomerID string             `json:"customer_id" validate:"required"`
	Location   string             `json:"location" validate:"omitempty,max=50"`
	Lines      []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// LineQuantityRequest cantidad aplicada a una línea.
type LineQuantityRequest struct {
	LineID   string          `json:"line_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// LineQuantitiesRequest body de despacho y facturación.
type LineQuantitiesRequest struct {
	Lines []LineQuantityRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToEntity convierte a cantidades de dominio.
func (r LineQuantitiesRequest) ToEntity() []entity.LineQuantity {
	out := make([]entity.LineQuantity, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, entity.LineQuantity{LineID: l.LineID, Quantity: l.Quantity})
	}
	return out
}

// HoldRequest body para retener un pedido.
type HoldRequest struct {
	Reason string `json:"reason" validate:"required,max=300"`
}

// SettlePaymentRequest confirmación de pago.
type SettlePaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

// OrderLineResponse línea con sus contadores.
type OrderLineResponse struct {
	ID        string          `json:"id"`
	LineNo    int             `json:"line_no"`
	ItemID    string          `json:"item_id"`
	Ordered   decimal.Decimal `json:"ordered"`
	Reserved  decimal.Decimal `json:"reserved"`
	Shipped   decimal.Decimal `json:"shipped"`
	Invoiced  decimal.Decimal `json:"invoiced"`
	Shortfall decimal.Decimal `json:"shortfall"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderResponse pedido con su estado proyectado.
type OrderResponse struct {
	ID               string              `json:"id"`
	Number           string              `json:"number"`
	CustomerID       string              `json:"customer_id"`
	Location         string              `json:"location"`
	Status           string              `json:"status"`
	HoldReason       string              `json:"hold_reason,omitempty"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	Lines            []OrderLineResponse `json:"lines"`
	CreatedBy        string              `json:"created_by"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderListResponse lista paginada de pedidos.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// NewOrderResponse mapea el pedido; status es la proyección calculada por el llamador.
func NewOrderResponse(o *entity.SalesOrder, status entity.OrderStatus) OrderResponse {
	out := OrderResponse{
		ID:               o.ID,
		Number:           o.Number,
		CustomerID:       o.CustomerID,
		Location:         o.Location,
		Status:           string(status),
		HoldReason:       o.HoldReason,
		PaymentReference: o.PaymentReference,
		Lines:            make([]OrderLineResponse, 0, len(o.Lines)),
		CreatedBy:        o.CreatedBy,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, OrderLineResponse{
			ID:        l.ID,
			LineNo:    l.LineNo,
			ItemID:    l.ItemID,
			Ordered:   l.Ordered,
			Reserved:  l.Reserved,
			Shipped:   l.Shipped,
			Invoiced:  l.Invoiced,
			Shortfall: l.Shortfall,
			UnitPrice: l.UnitPrice,
		})
	}
	return out
}
