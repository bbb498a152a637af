package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

var _ repository.StockLotRepository = (*StockLotRepo)(nil)

const lotColumns = `id, seq, item_id, location, received, available, reserved, consumed, unit_cost, received_date, updated_at`

// StockLotRepo lotes sobre PostgreSQL. La foto la protege el CHECK stock_lots_buckets.
type StockLotRepo struct {
	q Querier
}

// NewStockLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLotRepository(q Querier) *StockLotRepo {
	return &StockLotRepo{q: q}
}

// Create inserta el lote; seq lo asigna la secuencia.
func (r *StockLotRepo) Create(ctx context.Context, lot *entity.StockLot) error {
	query := `
		INSERT INTO stock_lots (id, item_id, location, received, available, reserved, consumed, unit_cost, received_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		lot.ID, lot.ItemID, lot.Location, lot.Received, lot.Available, lot.Reserved, lot.Consumed,
		lot.UnitCost, lot.ReceivedDate, lot.UpdatedAt,
	).Scan(&lot.Seq)
	return wrap("create lot", err)
}

// GetByID obtiene un lote por ID.
func (r *StockLotRepo) GetByID(ctx context.Context, id string) (*entity.StockLot, error) {
	lot, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM stock_lots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get lot", err)
	}
	return lot, nil
}

// UpdateSnapshot guarda los cuatro baldes.
func (r *StockLotRepo) UpdateSnapshot(ctx context.Context, lot *entity.StockLot) error {
	query := `
		UPDATE stock_lots SET received = $2, available = $3, reserved = $4, consumed = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, lot.ID, lot.Received, lot.Available, lot.Reserved, lot.Consumed, lot.UpdatedAt)
	if err != nil {
		return wrap("update lot", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

// ListByItem lotes en orden FIFO (fecha de recepción, luego seq).
func (r *StockLotRepo) ListByItem(ctx context.Context, itemID, location string) ([]*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots WHERE item_id = $1`
	args := []any{itemID}
	if location != "" {
		query += ` AND location = $2`
		args = append(args, location)
	}
	query += ` ORDER BY received_date, seq`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list lots", err)
	}
	defer rows.Close()
	out := make([]*entity.StockLot, 0)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, wrap("scan lot", err)
		}
		out = append(out, lot)
	}
	return out, wrap("list lots", rows.Err())
}

func scanLot(row pgx.Row) (*entity.StockLot, error) {
	var l entity.StockLot
	err := row.Scan(&l.ID, &l.Seq, &l.ItemID, &l.Location, &l.Received, &l.Available, &l.Reserved,
		&l.Consumed, &l.UnitCost, &l.ReceivedDate, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
