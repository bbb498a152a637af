package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountState estado de una sesión de conteo físico.
type CountState string

const (
	CountStateOpen      CountState = "OPEN"
	CountStateSubmitted CountState = "SUBMITTED"
	CountStatePosted    CountState = "POSTED"
)

// PhysicalCount sesión de conteo por ubicación. Inmutable una vez contabilizada.
type PhysicalCount struct {
	ID        string
	Location  string
	CountDate time.Time
	State     CountState
	Lines     []*CountLine
	CreatedBy string
	PostedBy  string
	PostedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line busca una línea de conteo por ID.
func (c *PhysicalCount) Line(id string) *CountLine {
	for _, l := range c.Lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// CountLine cantidad de sistema (foto al iniciar) contra cantidad contada.
type CountLine struct {
	ID                 string
	CountID            string
	ItemID             string
	SystemQuantity     decimal.Decimal
	CountedQuantity    decimal.Decimal
	Variance           decimal.Decimal // contado - sistema
	VariancePercentage decimal.Decimal
	Notes              string
	Counted            bool
}
