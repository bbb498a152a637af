// Package fulfillment orquesta el ciclo de vida del pedido de venta. Cada operación valida
// el estado proyectado, mueve los contadores de línea y delega el stock al motor de asignación.
package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	status "github.com/jhoicas/erp-fulfillment/internal/domain/fulfillment"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

const shortfallReason = "stock insuficiente para reservar"

// Service máquina de estados del pedido. Serializa por pedido con orderLocker y por artículo
// a través del libro.
type Service struct {
	ledger      *ledger.Ledger
	engine      *ledger.AllocationEngine
	orderLocker ledger.Locker
	log         *logger.Logger
}

// NewService construye el servicio.
func NewService(l *ledger.Ledger, engine *ledger.AllocationEngine, orderLocker ledger.Locker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if orderLocker == nil {
		orderLocker = ledger.NopLocker{}
	}
	return &Service{ledger: l, engine: engine, orderLocker: orderLocker, log: log.Component("fulfillment")}
}

// LineInput línea de un pedido nuevo.
type LineInput struct {
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateOrderInput datos de un pedido nuevo. Number vacío = se genera.
type CreateOrderInput struct {
	Number     string
	CustomerID string
	Location   string
	Lines      []LineInput
	Actor      string
}

// CreateOrder crea el pedido en DRAFT.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.SalesOrder, error) {
	if in.CustomerID == "" || in.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	now := s.ledger.Now()
	order := &entity.SalesOrder{
		ID:         uuid.New().String(),
		Number:     in.Number,
		CustomerID: in.CustomerID,
		Location:   s.ledger.Location(in.Location),
		CreatedBy:  in.Actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if order.Number == "" {
		order.Number = "SO-" + strings.ToUpper(order.ID[:8])
	}
	for i, li := range in.Lines {
		if li.ItemID == "" {
			return nil, domain.ErrInvalidInput
		}
		if !li.Quantity.IsPositive() || li.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidQuantity
		}
		order.Lines = append(order.Lines, &entity.SalesOrderLine{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			LineNo:    i + 1,
			ItemID:    li.ItemID,
			Ordered:   li.Quantity,
			Reserved:  decimal.Zero,
			Shipped:   decimal.Zero,
			Invoiced:  decimal.Zero,
			UnitPrice: li.UnitPrice,
			Shortfall: decimal.Zero,
		})
	}

	err := s.ledger.Atomic(ctx, nil, func(repos repository.Repositories, b *ledger.Batch) error {
		for _, l := range order.Lines {
			item, err := repos.Items.GetByID(ctx, l.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("item %s: %w", l.ItemID, domain.ErrNotFound)
			}
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		b.Add(entity.OrderStatusChanged{OrderID: order.ID, To: entity.OrderDraft, Actor: in.Actor, OccurredAt: now})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("order_id", order.ID).Str("number", order.Number).Int("lines", len(order.Lines)).
		Str("actor", in.Actor).Msg("pedido creado")
	return order, nil
}

// Submit DRAFT -> PENDING_APPROVAL.
func (s *Service) Submit(ctx context.Context, orderID, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, false, func(_ repository.Repositories, _ *ledger.Batch, o *entity.SalesOrder) error {
		if err := expect(o, entity.OrderDraft); err != nil {
			return err
		}
		if !hasActiveLines(o) {
			return fmt.Errorf("pedido sin líneas: %w", domain.ErrInvalidInput)
		}
		now := s.ledger.Now()
		o.SubmittedAt = &now
		return nil
	})
}

// Approve aprueba y reserva todas las líneas. Con faltante el pedido queda ON_HOLD y cada
// línea registra su faltante.
func (s *Service) Approve(ctx context.Context, orderID, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, true, func(repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder) error {
		if err := expect(o, entity.OrderDraft, entity.OrderPendingApproval); err != nil {
			return err
		}
		if !hasActiveLines(o) {
			return fmt.Errorf("pedido sin líneas: %w", domain.ErrInvalidInput)
		}
		now := s.ledger.Now()
		if o.SubmittedAt == nil {
			o.SubmittedAt = &now
		}
		o.ApprovedAt = &now
		short, err := s.reserveLines(ctx, repos, b, o, actor)
		if err != nil {
			return err
		}
		if short {
			o.OnHold = true
			o.HoldReason = shortfallReason
		}
		return nil
	})
}

// StartProcessing APPROVED -> PROCESSING (liberado a bodega para picking).
func (s *Service) StartProcessing(ctx context.Context, orderID, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, false, func(_ repository.Repositories, _ *ledger.Batch, o *entity.SalesOrder) error {
		if err := expect(o, entity.OrderApproved); err != nil {
			return err
		}
		now := s.ledger.Now()
		o.ProcessingAt = &now
		return nil
	})
}

// Ship despacha cantidades por línea consumiendo sus reservas. Todo o nada.
func (s *Service) Ship(ctx context.Context, orderID string, lines []entity.LineQuantity, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, true, func(repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder) error {
		st := status.DeriveStatus(o)
		if !status.CanShip(st) {
			return transitionError(st, "despachar")
		}
		qty, err := sumByLine(o, lines)
		if err != nil {
			return err
		}
		for _, l := range o.Lines {
			q, ok := qty[l.ID]
			if !ok {
				continue
			}
			if q.GreaterThan(status.Shippable(l)) {
				return domain.NewQuantityError(domain.ErrExceedsReserved, l.ItemID, l.ID, q, status.Shippable(l))
			}
		}
		for _, l := range o.Lines {
			q, ok := qty[l.ID]
			if !ok {
				continue
			}
			if _, err := s.engine.ConsumeInTx(ctx, repos, b, ledger.AllocationRequest{
				ItemID: l.ItemID, Quantity: q, Reference: l.Reference(), Actor: actor,
			}); err != nil {
				return err
			}
			l.Shipped = l.Shipped.Add(q)
		}
		return nil
	})
}

// Deliver SHIPPED -> DELIVERED (confirmación externa del transportista).
func (s *Service) Deliver(ctx context.Context, orderID, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, false, func(_ repository.Repositories, _ *ledger.Batch, o *entity.SalesOrder) error {
		if err := expect(o, entity.OrderShipped); err != nil {
			return err
		}
		now := s.ledger.Now()
		o.DeliveredAt = &now
		return nil
	})
}

// Invoice registra cantidades facturadas por línea. Nunca más de lo despachado.
func (s *Service) Invoice(ctx context.Context, orderID string, lines []entity.LineQuantity, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, false, func(_ repository.Repositories, _ *ledger.Batch, o *entity.SalesOrder) error {
		st := status.DeriveStatus(o)
		if !status.CanInvoice(st) {
			return transitionError(st, "facturar")
		}
		qty, err := sumByLine(o, lines)
		if err != nil {
			return err
		}
		for _, l := range o.Lines {
			q, ok := qty[l.ID]
			if !ok {
				continue
			}
			if q.GreaterThan(status.Invoiceable(l)) {
				return domain.NewQuantityError(domain.ErrExceedsShipped, l.ItemID, l.ID, q, status.Invoiceable(l))
			}
		}
		for _, l := range o.Lines {
			if q, ok := qty[l.ID]; ok {
				l.Invoiced = l.Invoiced.Add(q)
			}
		}
		return nil
	})
}

// SettlePayment confirmación externa de pago; exige el pedido totalmente facturado.
func (s *Service) SettlePayment(ctx context.Context, orderID, reference, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, false, func(_ repository.Repositories, _ *ledger.Batch, o *entity.SalesOrder) error {
		if err := expect(o, entity.OrderInvoiced); err != nil {
			return err
		}
		now := s.ledger.Now()
		o.PaymentSettledAt = &now
		o.PaymentReference = reference
		return nil
	})
}

// Cancel cancela un pedido sin despachos y libera sus reservas.
func (s *Service) Cancel(ctx context.Context, orderID, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, true, func(repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder) error {
		return s.cancel(ctx, repos, b, o, actor)
	})
}

func (s *Service) cancel(ctx context.Context, repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder, actor string) error {
	st := status.DeriveStatus(o)
	if st.Terminal() {
		return transitionError(st, "cancelar")
	}
	if status.AnyShipped(o) {
		return domain.ErrCannotCancelShipped
	}
	for _, l := range o.Lines {
		if err := s.release(ctx, repos, b, l, l.Reserved, actor); err != nil {
			return err
		}
		l.Shortfall = decimal.Zero
	}
	now := s.ledger.Now()
	o.CancelledAt = &now
	return nil
}

// CancelRemainder cancelación parcial: reduce lo pedido a lo despachado y libera la reserva
// no despachada. Sin despachos equivale a Cancel.
func (s *Service) CancelRemainder(ctx context.Context, orderID, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, true, func(repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder) error {
		if !status.AnyShipped(o) {
			return s.cancel(ctx, repos, b, o, actor)
		}
		st := status.DeriveStatus(o)
		if st.Terminal() {
			return transitionError(st, "cancelar el saldo")
		}
		for _, l := range o.Lines {
			if err := s.release(ctx, repos, b, l, l.Reserved.Sub(l.Shipped), actor); err != nil {
				return err
			}
			l.Ordered = l.Shipped
			l.Shortfall = decimal.Zero
		}
		o.OnHold = false
		o.HoldReason = ""
		return nil
	})
}

// Hold retiene un pedido aprobado que aún no termina de despacharse.
func (s *Service) Hold(ctx context.Context, orderID, reason, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, false, func(_ repository.Repositories, _ *ledger.Batch, o *entity.SalesOrder) error {
		if err := expect(o, entity.OrderApproved, entity.OrderProcessing, entity.OrderPartiallyShipped); err != nil {
			return err
		}
		if strings.TrimSpace(reason) == "" {
			return fmt.Errorf("motivo requerido: %w", domain.ErrInvalidInput)
		}
		o.OnHold = true
		o.HoldReason = reason
		return nil
	})
}

// Resume reintenta reservar el faltante de cada línea. Si aún falta, el pedido sigue ON_HOLD.
func (s *Service) Resume(ctx context.Context, orderID, actor string) (*entity.SalesOrder, error) {
	return s.mutate(ctx, orderID, actor, true, func(repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder) error {
		if err := expect(o, entity.OrderOnHold); err != nil {
			return err
		}
		short, err := s.reserveLines(ctx, repos, b, o, actor)
		if err != nil {
			return err
		}
		if short {
			o.HoldReason = shortfallReason
			return nil
		}
		o.OnHold = false
		o.HoldReason = ""
		return nil
	})
}

// Get devuelve el pedido con sus líneas.
func (s *Service) Get(ctx context.Context, orderID string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := s.ledger.Read(ctx, func(repos repository.Repositories) error {
		var err error
		order, err = repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return order, err
}

// OrderStatus proyección de solo lectura del estado.
func (s *Service) OrderStatus(ctx context.Context, orderID string) (entity.OrderStatus, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	return status.DeriveStatus(o), nil
}

// List lista pedidos, los más recientes primero.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*entity.SalesOrder, error) {
	var orders []*entity.SalesOrder
	err := s.ledger.Read(ctx, func(repos repository.Repositories) error {
		var err error
		orders, err = repos.Orders.List(ctx, limit, offset)
		return err
	})
	return orders, err
}

// mutate serializa por pedido, recarga el pedido dentro de la transacción (con los candados
// de sus artículos si withItems) y emite OrderStatusChanged cuando cambia el estado proyectado.
func (s *Service) mutate(
	ctx context.Context, orderID, actor string, withItems bool,
	fn func(repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder) error,
) (*entity.SalesOrder, error) {
	if orderID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	unlock, err := s.orderLocker.Lock(ctx, "order:"+orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var itemIDs []string
	if withItems {
		current, err := s.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		for _, l := range current.Lines {
			itemIDs = append(itemIDs, l.ItemID)
		}
	}

	var (
		result   *entity.SalesOrder
		from, to entity.OrderStatus
	)
	err = s.ledger.Atomic(ctx, itemIDs, func(repos repository.Repositories, b *ledger.Batch) error {
		o, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		from = status.DeriveStatus(o)
		if err := fn(repos, b, o); err != nil {
			return err
		}
		now := s.ledger.Now()
		o.UpdatedAt = now
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		to = status.DeriveStatus(o)
		if from != to {
			b.Add(entity.OrderStatusChanged{OrderID: o.ID, From: from, To: to, Actor: actor, OccurredAt: now})
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != to {
		s.log.Info().Str("order_id", orderID).Str("from", string(from)).Str("status", string(to)).
			Str("actor", actor).Msg("pedido: cambio de estado")
	}
	return result, nil
}

// reserveLines reserva lo no reservado de cada línea. Devuelve true si quedó algún faltante.
func (s *Service) reserveLines(ctx context.Context, repos repository.Repositories, b *ledger.Batch, o *entity.SalesOrder, actor string) (bool, error) {
	short := false
	for _, l := range o.Lines {
		need := status.Unreserved(l)
		if !need.IsPositive() {
			l.Shortfall = decimal.Zero
			continue
		}
		alloc, err := s.engine.ReserveInTx(ctx, repos, b, ledger.AllocationRequest{
			ItemID: l.ItemID, Location: o.Location, Quantity: need, Reference: l.Reference(), Actor: actor,
		})
		if err != nil {
			return false, err
		}
		l.Reserved = l.Reserved.Add(alloc.Reserved)
		l.Shortfall = alloc.Shortfall
		if !alloc.Complete() {
			short = true
			s.log.Warn().Str("order_id", o.ID).Str("line_id", l.ID).Str("item_id", l.ItemID).
				Str("shortfall", alloc.Shortfall.String()).Msg("reserva parcial")
		}
	}
	return short, nil
}

func (s *Service) release(ctx context.Context, repos repository.Repositories, b *ledger.Batch, l *entity.SalesOrderLine, qty decimal.Decimal, actor string) error {
	if !qty.IsPositive() {
		return nil
	}
	if _, err := s.engine.ReleaseInTx(ctx, repos, b, ledger.AllocationRequest{
		ItemID: l.ItemID, Quantity: qty, Reference: l.Reference(), Actor: actor,
	}); err != nil {
		return err
	}
	l.Reserved = l.Reserved.Sub(qty)
	return nil
}

func expect(o *entity.SalesOrder, allowed ...entity.OrderStatus) error {
	st := status.DeriveStatus(o)
	for _, a := range allowed {
		if st == a {
			return nil
		}
	}
	return fmt.Errorf("pedido en %s: %w", st, domain.ErrInvalidTransition)
}

func transitionError(st entity.OrderStatus, op string) error {
	return fmt.Errorf("no se puede %s un pedido en %s: %w", op, st, domain.ErrInvalidTransition)
}

func hasActiveLines(o *entity.SalesOrder) bool {
	for _, l := range o.Lines {
		if l.Ordered.IsPositive() {
			return true
		}
	}
	return false
}

// sumByLine valida y agrupa las cantidades por línea.
func sumByLine(o *entity.SalesOrder, lines []entity.LineQuantity) (map[string]decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	out := make(map[string]decimal.Decimal, len(lines))
	for _, lq := range lines {
		if o.Line(lq.LineID) == nil {
			return nil, fmt.Errorf("línea %s: %w", lq.LineID, domain.ErrNotFound)
		}
		if !lq.Quantity.IsPositive() {
			return nil, domain.ErrInvalidQuantity
		}
		cur, ok := out[lq.LineID]
		if !ok {
			cur = decimal.Zero
		}
		out[lq.LineID] = cur.Add(lq.Quantity)
	}
	return out, nil
}
