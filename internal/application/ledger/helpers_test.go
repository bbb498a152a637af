package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/application/ledger"
	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/lock"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/memory"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

const actor = "00000000-0000-0000-0000-000000000001"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recorder guarda los eventos publicados.
type recorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func (r *recorder) Publish(_ context.Context, events ...entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) count(t entity.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventType() == t {
			n++
		}
	}
	return n
}

type fixture struct {
	store  *memory.Store
	ledger *ledger.Ledger
	engine *ledger.AllocationEngine
	events *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	rec := &recorder{}
	l := ledger.New(store, lock.NewLocal(time.Second), rec, logger.Nop(), ledger.Options{
		BusyRetries:     2,
		RetryBackoff:    time.Millisecond,
		DefaultLocation: "MAIN",
	})
	return &fixture{store: store, ledger: l, engine: ledger.NewAllocationEngine(l), events: rec}
}

func (f *fixture) item(t *testing.T, id string, tracks bool) {
	t.Helper()
	err := f.store.Run(context.Background(), func(repos repository.Repositories) error {
		return repos.Items.Create(context.Background(), &entity.Item{
			ID: id, SKU: "SKU-" + id, Name: id, TracksInventory: tracks,
			ReorderPoint: decimal.Zero, MinQuantity: decimal.Zero, MaxQuantity: decimal.Zero,
		})
	})
	require.NoError(t, err)
}

func (f *fixture) receive(t *testing.T, itemID, qty, cost string, at time.Time) *entity.StockLot {
	t.Helper()
	lot, err := f.ledger.Receive(context.Background(), ledger.ReceiveInput{
		ItemID:       itemID,
		Quantity:     d(qty),
		UnitCost:     d(cost),
		ReceivedDate: at,
		Reference:    entity.Reference{Type: entity.RefPurchaseReceipt, ID: "PO-1"},
		Actor:        actor,
	})
	require.NoError(t, err)
	return lot
}

func lineRef(id string) entity.Reference {
	return entity.Reference{Type: entity.RefSalesOrderLine, ID: id}
}
