// Package lock candado por clave dentro del proceso.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
)

// Local serializa por clave (artículo u orden) dentro del proceso. Las entradas se crean
// bajo demanda y se eliminan cuando nadie las usa.
type Local struct {
	mu      sync.Mutex
	keys    map[string]*entry
	timeout time.Duration
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocal crea el candado. timeout <= 0 espera indefinidamente (solo cancela el ctx).
func NewLocal(timeout time.Duration) *Local {
	return &Local{keys: make(map[string]*entry), timeout: timeout}
}

// Lock espera el candado de key. Si no lo obtiene dentro del timeout devuelve ErrResourceBusy.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.timeout > 0 {
		t := time.NewTimer(l.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	case <-timeout:
		l.release(key, e)
		return nil, fmt.Errorf("candado %s: %w", key, domain.ErrResourceBusy)
	}
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}
