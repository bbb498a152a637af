// Package memory implementa los repositorios y el TxRunner en memoria.
// Se usa en tests y con STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

// Store guarda todo el estado detrás de un mutex. Cada Run trabaja sobre una copia profunda
// que reemplaza al estado solo si fn termina sin error, así el rollback es descartar la copia.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	items     map[string]*entity.Item
	lots      map[string]*entity.StockLot
	lotSeq    int64
	movements []*entity.StockMovement
	movSeq    int64
	orders    map[string]*entity.SalesOrder
	counts    map[string]*entity.PhysicalCount
}

// New crea un store vacío.
func New() *Store {
	return &Store{st: &state{
		items:  make(map[string]*entity.Item),
		lots:   make(map[string]*entity.StockLot),
		orders: make(map[string]*entity.SalesOrder),
		counts: make(map[string]*entity.PhysicalCount),
	}}
}

// Run ejecuta fn de forma serializada con Commit/Rollback.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(work.repositories()); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (st *state) repositories() repository.Repositories {
	return repository.Repositories{
		Items:     &itemRepo{st: st},
		Lots:      &lotRepo{st: st},
		Movements: &movementRepo{st: st},
		Orders:    &orderRepo{st: st},
		Counts:    &countRepo{st: st},
	}
}

func (st *state) clone() *state {
	c := &state{
		items:     make(map[string]*entity.Item, len(st.items)),
		lots:      make(map[string]*entity.StockLot, len(st.lots)),
		lotSeq:    st.lotSeq,
		movements: make([]*entity.StockMovement, len(st.movements), len(st.movements)+8),
		movSeq:    st.movSeq,
		orders:    make(map[string]*entity.SalesOrder, len(st.orders)),
		counts:    make(map[string]*entity.PhysicalCount, len(st.counts)),
	}
	for k, v := range st.items {
		c.items[k] = copyItem(v)
	}
	for k, v := range st.lots {
		c.lots[k] = copyLot(v)
	}
	// los movimientos son inmutables una vez agregados
	copy(c.movements, st.movements)
	for k, v := range st.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range st.counts {
		c.counts[k] = copyCount(v)
	}
	return c
}

func copyItem(i *entity.Item) *entity.Item {
	c := *i
	return &c
}

func copyLot(l *entity.StockLot) *entity.StockLot {
	c := *l
	return &c
}

func copyMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	return &c
}

func copyOrder(o *entity.SalesOrder) *entity.SalesOrder {
	c := *o
	c.Lines = make([]*entity.SalesOrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		c.Lines[i] = &lc
	}
	return &c
}

func copyCount(pc *entity.PhysicalCount) *entity.PhysicalCount {
	c := *pc
	c.Lines = make([]*entity.CountLine, len(pc.Lines))
	for i, l := range pc.Lines {
		lc := *l
		c.Lines[i] = &lc
	}
	return &c
}

func page[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
