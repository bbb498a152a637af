package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/inventory"
)

// ReceiveRequest body para POST /api/inventory/receipts.
type ReceiveRequest struct {
	ItemID       string          `json:"item_id" validate:"required"`
	Location     string          `json:"location" validate:"omitempty,max=50"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReceivedDate *time.Time      `json:"received_date,omitempty"`
	ReferenceID  string          `json:"reference_id" validate:"required,max=100"`
	Notes        string          `json:"notes" validate:"max=500"`
}

// AdjustRequest body para POST /api/inventory/adjustments. Quantity es un delta con signo.
type AdjustRequest struct {
	ItemID      string          `json:"item_id" validate:"required"`
	Location    string          `json:"location" validate:"omitempty,max=50"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReferenceID string          `json:"reference_id" validate:"max=100"`
	Notes       string          `json:"notes" validate:"required,max=500"`
}

// LotResponse un lote con sus cuatro cantidades.
type LotResponse struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"item_id"`
	Location     string          `json:"location"`
	Received     decimal.Decimal `json:"received"`
	Available    decimal.Decimal `json:"available"`
	Reserved     decimal.Decimal `json:"reserved"`
	Consumed     decimal.Decimal `json:"consumed"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReceivedDate time.Time       `json:"received_date"`
}

// MovementResponse entrada del historial.
type MovementResponse struct {
	Seq           int64           `json:"seq"`
	ItemID        string          `json:"item_id"`
	LotID         string          `json:"lot_id"`
	Location      string          `json:"location"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Actor         string          `json:"actor"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SnapshotResponse foto agregada del artículo con su valorización.
type SnapshotResponse struct {
	ItemID      string          `json:"item_id"`
	Location    string          `json:"location,omitempty"`
	Received    decimal.Decimal `json:"received"`
	Available   decimal.Decimal `json:"available"`
	Reserved    decimal.Decimal `json:"reserved"`
	Consumed    decimal.Decimal `json:"consumed"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Value       decimal.Decimal `json:"value"`
	AverageCost decimal.Decimal `json:"average_cost"`
	LotCount    int             `json:"lot_count"`
}

// DriftResponse lote cuya foto no coincide con el replay.
type DriftResponse struct {
	LotID    string      `json:"lot_id"`
	Stored   LotResponse `json:"stored"`
	Replayed LotResponse `json:"replayed"`
}

// VerifyResponse resultado de la verificación del libro.
type VerifyResponse struct {
	ItemID     string          `json:"item_id"`
	Movements  int             `json:"movements"`
	Lots       int             `json:"lots"`
	Consistent bool            `json:"consistent"`
	Drifts     []DriftResponse `json:"drifts"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un artículo bajo su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	ItemID             string          `json:"item_id"`
	SKU                string          `json:"sku"`
	ItemName           string          `json:"item_name"`
	Available          decimal.Decimal `json:"available"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	TargetStock        decimal.Decimal `json:"target_stock"`         // MaxQuantity o ReorderPoint * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // TargetStock - Available
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo del próximo lote FIFO
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// NewLotResponse mapea un lote.
func NewLotResponse(l *entity.StockLot) LotResponse {
	return LotResponse{
		ID:           l.ID,
		ItemID:       l.ItemID,
		Location:     l.Location,
		Received:     l.Received,
		Available:    l.Available,
		Reserved:     l.Reserved,
		Consumed:     l.Consumed,
		UnitCost:     l.UnitCost,
		ReceivedDate: l.ReceivedDate,
	}
}

// NewMovementResponse mapea un movimiento.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		Seq:           m.Seq,
		ItemID:        m.ItemID,
		LotID:         m.LotID,
		Location:      m.Location,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		ReferenceType: string(m.Reference.Type),
		ReferenceID:   m.Reference.ID,
		Actor:         m.Actor,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
	}
}

// NewSnapshotResponse mapea la foto.
func NewSnapshotResponse(s entity.StockSnapshot) SnapshotResponse {
	return SnapshotResponse{
		ItemID:      s.ItemID,
		Location:    s.Location,
		Received:    s.Received,
		Available:   s.Available,
		Reserved:    s.Reserved,
		Consumed:    s.Consumed,
		OnHand:      s.OnHand,
		Value:       s.Value,
		AverageCost: s.AverageCost,
		LotCount:    s.LotCount,
	}
}

// NewVerifyResponse mapea el reporte de verificación.
func NewVerifyResponse(itemID string, movements, lots int, drifts []inventory.LotDrift) VerifyResponse {
	out := VerifyResponse{
		ItemID:     itemID,
		Movements:  movements,
		Lots:       lots,
		Consistent: len(drifts) == 0,
		Drifts:     make([]DriftResponse, 0, len(drifts)),
	}
	for i := range drifts {
		out.Drifts = append(out.Drifts, DriftResponse{
			LotID:    drifts[i].LotID,
			Stored:   NewLotResponse(&drifts[i].Stored),
			Replayed: NewLotResponse(&drifts[i].Replayed),
		})
	}
	return out
}
