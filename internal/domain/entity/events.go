package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType conjunto cerrado de eventos que emite el núcleo.
type EventType string

const (
	EventMovementPosted     EventType = "inventory.movement_posted"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventCountPosted        EventType = "inventory.count_posted"
)

// Event evento de salida. La interfaz está sellada: solo los tipos de este paquete la implementan.
type Event interface {
	EventType() EventType
	Key() string // clave de ordenamiento (item u orden)
	sealed()
}

// MovementPosted lo consume el colaborador contable para costo de ventas y valor de inventario.
type MovementPosted struct {
	Seq        int64           `json:"seq"`
	ItemID     string          `json:"item_id"`
	LotID      string          `json:"lot_id"`
	Location   string          `json:"location"`
	Type       MovementType    `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Reference  Reference       `json:"reference"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (MovementPosted) EventType() EventType { return EventMovementPosted }
func (e MovementPosted) Key() string      { return e.ItemID }
func (MovementPosted) sealed()            {}

// NewMovementPosted construye el evento desde un movimiento persistido.
func NewMovementPosted(m *StockMovement) MovementPosted {
	return MovementPosted{
		Seq:        m.Seq,
		ItemID:     m.ItemID,
		LotID:      m.LotID,
		Location:   m.Location,
		Type:       m.Type,
		Quantity:   m.Quantity,
		UnitCost:   m.UnitCost,
		TotalCost:  m.TotalCost(),
		Reference:  m.Reference,
		Actor:      m.Actor,
		OccurredAt: m.CreatedAt,
	}
}

// OrderStatusChanged lo consumen notificaciones y auditoría.
type OrderStatusChanged struct {
	OrderID    string      `json:"order_id"`
	From       OrderStatus `json:"from"`
	To         OrderStatus `json:"to"`
	Actor      string      `json:"actor"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func (OrderStatusChanged) EventType() EventType { return EventOrderStatusChanged }
func (e OrderStatusChanged) Key() string      { return e.OrderID }
func (OrderStatusChanged) sealed()            {}

// CountPosted resumen de un conteo contabilizado.
type CountPosted struct {
	CountID     string    `json:"count_id"`
	Location    string    `json:"location"`
	Corrections int       `json:"corrections"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (CountPosted) EventType() EventType { return EventCountPosted }
func (e CountPosted) Key() string      { return e.CountID }
func (CountPosted) sealed()            {}
