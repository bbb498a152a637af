package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
)

// StartCountRequest body para POST /api/counts.
type StartCountRequest struct {
	Location  string     `json:"location" validate:"omitempty,max=50"`
	ItemIDs   []string   `json:"item_ids" validate:"required,min=1,dive,required"`
	CountDate *time.Time `json:"count_date,omitempty"`
}

// RecordCountRequest cantidad contada de una línea. Notes nil conserva las anteriores.
type RecordCountRequest struct {
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Notes           *string         `json:"notes" validate:"omitempty,max=500"`
}

// CountLineResponse línea de conteo con su variación.
type CountLineResponse struct {
	ID                 string          `json:"id"`
	ItemID             string          `json:"item_id"`
	SystemQuantity     decimal.Decimal `json:"system_quantity"`
	CountedQuantity    decimal.Decimal `json:"counted_quantity"`
	Counted            bool            `json:"counted"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePercentage decimal.Decimal `json:"variance_percentage"`
	Notes              string          `json:"notes,omitempty"`
}

// CountResponse sesión de conteo.
type CountResponse struct {
	ID        string              `json:"id"`
	Location  string              `json:"location"`
	CountDate time.Time           `json:"count_date"`
	State     string              `json:"state"`
	Lines     []CountLineResponse `json:"lines"`
	CreatedBy string              `json:"created_by"`
	PostedBy  string              `json:"posted_by,omitempty"`
	PostedAt  *time.Time          `json:"posted_at,omitempty"`
}

// NewCountResponse mapea la sesión de conteo.
func NewCountResponse(pc *entity.PhysicalCount) CountResponse {
	out := CountResponse{
		ID:        pc.ID,
		Location:  pc.Location,
		CountDate: pc.CountDate,
		State:     string(pc.State),
		Lines:     make([]CountLineResponse, 0, len(pc.Lines)),
		CreatedBy: pc.CreatedBy,
		PostedBy:  pc.PostedBy,
		PostedAt:  pc.PostedAt,
	}
	for _, l := range pc.Lines {
		out.Lines = append(out.Lines, CountLineResponse{
			ID:                 l.ID,
			ItemID:             l.ItemID,
			SystemQuantity:     l.SystemQuantity,
			CountedQuantity:    l.CountedQuantity,
			Counted:            l.Counted,
			Variance:           l.Variance,
			VariancePercentage: l.VariancePercentage,
			Notes:              l.Notes,
		})
	}
	return out
}
