package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

const (
	orderColumns = `id, number, customer_id, location, submitted_at, approved_at, processing_at, on_hold, hold_reason,
		delivered_at, payment_settled_at, payment_reference, cancelled_at, created_by, created_at, updated_at`
	orderLineColumns = `id, order_id, line_no, item_id, ordered, reserved, shipped, invoiced, unit_price, shortfall`
)

// SalesOrderRepo pedidos y líneas sobre PostgreSQL. El estado no se persiste.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create inserta cabecera y líneas. Debe ir dentro de una tx para ser atómico.
func (r *SalesOrderRepo) Create(ctx context.Context, o *entity.SalesOrder) error {
	query := `
		INSERT INTO sales_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Number, o.CustomerID, o.Location, o.SubmittedAt, o.ApprovedAt, o.ProcessingAt,
		o.OnHold, o.HoldReason, o.DeliveredAt, o.PaymentSettledAt, o.PaymentReference, o.CancelledAt,
		o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return wrap("create order", err)
	}
	lineQuery := `
		INSERT INTO sales_order_lines (` + orderLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, l := range o.Lines {
		_, err := r.q.Exec(ctx, lineQuery,
			l.ID, o.ID, l.LineNo, l.ItemID, l.Ordered, l.Reserved, l.Shipped, l.Invoiced, l.UnitPrice, l.Shortfall)
		if err != nil {
			return wrap("create order line", err)
		}
	}
	return nil
}

// GetByID obtiene el pedido con sus líneas.
func (r *SalesOrderRepo) GetByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get order", err)
	}
	if err := r.loadLines(ctx, []*entity.SalesOrder{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// Update guarda banderas de cabecera y contadores de línea.
func (r *SalesOrderRepo) Update(ctx context.Context, o *entity.SalesOrder) error {
	query := `
		UPDATE sales_orders SET submitted_at = $2, approved_at = $3, processing_at = $4, on_hold = $5,
			hold_reason = $6, delivered_at = $7, payment_settled_at = $8, payment_reference = $9,
			cancelled_at = $10, updated_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		o.ID, o.SubmittedAt, o.ApprovedAt, o.ProcessingAt, o.OnHold, o.HoldReason, o.DeliveredAt,
		o.PaymentSettledAt, o.PaymentReference, o.CancelledAt, o.UpdatedAt,
	)
	if err != nil {
		return wrap("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	lineQuery := `
		UPDATE sales_order_lines SET ordered = $2, reserved = $3, shipped = $4, invoiced = $5, shortfall = $6
		WHERE id = $1`
	for _, l := range o.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, l.ID, l.Ordered, l.Reserved, l.Shipped, l.Invoiced, l.Shortfall); err != nil {
			return wrap("update order line", err)
		}
	}
	return nil
}

// List pedidos más recientes primero, con sus líneas.
func (r *SalesOrderRepo) List(ctx context.Context, limit, offset int) ([]*entity.SalesOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders ORDER BY created_at DESC, id OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list orders", err)
	}
	out := make([]*entity.SalesOrder, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("scan order", err)
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap("list orders", err)
	}
	if err := r.loadLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SalesOrderRepo) loadLines(ctx context.Context, orders []*entity.SalesOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	byID := make(map[string]*entity.SalesOrder, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+orderLineColumns+` FROM sales_order_lines WHERE order_id = ANY($1) ORDER BY order_id, line_no`, ids)
	if err != nil {
		return wrap("list order lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SalesOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNo, &l.ItemID, &l.Ordered, &l.Reserved,
			&l.Shipped, &l.Invoiced, &l.UnitPrice, &l.Shortfall); err != nil {
			return wrap("scan order line", err)
		}
		if o := byID[l.OrderID]; o != nil {
			o.Lines = append(o.Lines, &l)
		}
	}
	return wrap("list order lines", rows.Err())
}

func scanOrder(row pgx.Row) (*entity.SalesOrder, error) {
	var o entity.SalesOrder
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.Location, &o.SubmittedAt, &o.ApprovedAt,
		&o.ProcessingAt, &o.OnHold, &o.HoldReason, &o.DeliveredAt, &o.PaymentSettledAt,
		&o.PaymentReference, &o.CancelledAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
