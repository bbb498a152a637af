package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `seq, item_id, lot_id, location, type, quantity, unit_cost, reference_type, reference_id, actor, notes, created_at`

// StockMovementRepo libro de movimientos (solo inserción) sobre PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta el movimiento; seq lo asigna el bigserial.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (item_id, lot_id, location, type, quantity, unit_cost, reference_type, reference_id, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ItemID, m.LotID, m.Location, string(m.Type), m.Quantity, m.UnitCost,
		string(m.Reference.Type), m.Reference.ID, m.Actor, m.Notes, m.CreatedAt,
	).Scan(&m.Seq)
	return wrap("append movement", err)
}

// ListByItem historial en orden de secuencia. limit <= 0 = todos.
func (r *StockMovementRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE item_id = $1 ORDER BY seq OFFSET $2`
	args := []any{itemID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list movements", err)
	}
	defer rows.Close()
	out := make([]*entity.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, wrap("scan movement", err)
		}
		out = append(out, m)
	}
	return out, wrap("list movements", rows.Err())
}

// OutstandingReservations suma con signo RESERVE/RELEASE/CONSUME de la referencia por lote.
func (r *StockMovementRepo) OutstandingReservations(ctx context.Context, itemID string, ref entity.Reference) ([]entity.LotReservation, error) {
	query := `
		SELECT m.lot_id, l.received_date, l.seq, SUM(m.quantity) AS outstanding, l.unit_cost
		FROM stock_movements m
		JOIN stock_lots l ON l.id = m.lot_id
		WHERE m.item_id = $1 AND m.reference_type = $2 AND m.reference_id = $3
		  AND m.type IN ('RESERVE', 'RELEASE', 'CONSUME')
		GROUP BY m.lot_id, l.received_date, l.seq, l.unit_cost
		HAVING SUM(m.quantity) > 0
		ORDER BY l.received_date, l.seq`
	rows, err := r.q.Query(ctx, query, itemID, string(ref.Type), ref.ID)
	if err != nil {
		return nil, wrap("outstanding reservations", err)
	}
	defer rows.Close()
	out := make([]entity.LotReservation, 0)
	for rows.Next() {
		var res entity.LotReservation
		if err := rows.Scan(&res.LotID, &res.ReceivedDate, &res.LotSeq, &res.Outstanding, &res.UnitCost); err != nil {
			return nil, wrap("scan reservation", err)
		}
		out = append(out, res)
	}
	return out, wrap("outstanding reservations", rows.Err())
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m            entity.StockMovement
		typ, refType string
	)
	err := row.Scan(&m.Seq, &m.ItemID, &m.LotID, &m.Location, &typ, &m.Quantity, &m.UnitCost,
		&refType, &m.Reference.ID, &m.Actor, &m.Notes, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.Reference.Type = entity.ReferenceType(refType)
	return &m, nil
}
