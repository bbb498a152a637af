package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

var _ repository.PhysicalCountRepository = (*PhysicalCountRepo)(nil)

const countColumns = `id, location, count_date, state, created_by, posted_by, posted_at, created_at, updated_at`

// PhysicalCountRepo conteos físicos sobre PostgreSQL.
type PhysicalCountRepo struct {
	q Querier
}

// NewPhysicalCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPhysicalCountRepository(q Querier) *PhysicalCountRepo {
	return &PhysicalCountRepo{q: q}
}

// Create inserta la sesión y sus líneas.
func (r *PhysicalCountRepo) Create(ctx context.Context, pc *entity.PhysicalCount) error {
	query := `
		INSERT INTO physical_counts (` + countColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, pc.ID, pc.Location, pc.CountDate, string(pc.State), pc.CreatedBy,
		pc.PostedBy, pc.PostedAt, pc.CreatedAt, pc.UpdatedAt)
	if err != nil {
		return wrap("create count", err)
	}
	lineQuery := `
		INSERT INTO physical_count_lines (id, count_id, line_no, item_id, system_quantity, counted_quantity,
			counted, variance, variance_percentage, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, l := range pc.Lines {
		_, err := r.q.Exec(ctx, lineQuery, l.ID, pc.ID, i+1, l.ItemID, l.SystemQuantity, l.CountedQuantity,
			l.Counted, l.Variance, l.VariancePercentage, l.Notes)
		if err != nil {
			return wrap("create count line", err)
		}
	}
	return nil
}

// GetByID obtiene la sesión con sus líneas.
func (r *PhysicalCountRepo) GetByID(ctx context.Context, id string) (*entity.PhysicalCount, error) {
	var (
		pc    entity.PhysicalCount
		state string
	)
	err := r.q.QueryRow(ctx, `SELECT `+countColumns+` FROM physical_counts WHERE id = $1`, id).Scan(
		&pc.ID, &pc.Location, &pc.CountDate, &state, &pc.CreatedBy, &pc.PostedBy, &pc.PostedAt,
		&pc.CreatedAt, &pc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get count", err)
	}
	pc.State = entity.CountState(state)

	rows, err := r.q.Query(ctx, `
		SELECT id, count_id, item_id, system_quantity, counted_quantity, counted, variance, variance_percentage, notes
		FROM physical_count_lines WHERE count_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, wrap("list count lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.CountLine
		if err := rows.Scan(&l.ID, &l.CountID, &l.ItemID, &l.SystemQuantity, &l.CountedQuantity,
			&l.Counted, &l.Variance, &l.VariancePercentage, &l.Notes); err != nil {
			return nil, wrap("scan count line", err)
		}
		pc.Lines = append(pc.Lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list count lines", err)
	}
	return &pc, nil
}

// GetByLineID busca la sesión que contiene la línea.
func (r *PhysicalCountRepo) GetByLineID(ctx context.Context, lineID string) (*entity.PhysicalCount, error) {
	var countID string
	err := r.q.QueryRow(ctx, `SELECT count_id FROM physical_count_lines WHERE id = $1`, lineID).Scan(&countID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get count line", err)
	}
	return r.GetByID(ctx, countID)
}

// Update guarda estado y líneas.
func (r *PhysicalCountRepo) Update(ctx context.Context, pc *entity.PhysicalCount) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE physical_counts SET state = $2, posted_by = $3, posted_at = $4, updated_at = $5
		WHERE id = $1`, pc.ID, string(pc.State), pc.PostedBy, pc.PostedAt, pc.UpdatedAt)
	if err != nil {
		return wrap("update count", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, l := range pc.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE physical_count_lines SET counted_quantity = $2, counted = $3, variance = $4,
				variance_percentage = $5, notes = $6
			WHERE id = $1`, l.ID, l.CountedQuantity, l.Counted, l.Variance, l.VariancePercentage, l.Notes)
		if err != nil {
			return wrap("update count line", err)
		}
	}
	return nil
}
