package ledger

import (
	"context"

	"github.com/jhoicas/erp-fulfillment/internal/domain/entity"
	"github.com/jhoicas/erp-fulfillment/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback en cualquier otro caso (incluido panic).
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// Locker candado por clave que antecede al bloqueo de fila. Si no se obtiene a tiempo
// debe devolver domain.ErrResourceBusy.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Publisher publica eventos de salida. Se invoca solo después del commit.
type Publisher interface {
	Publish(ctx context.Context, events ...entity.Event) error
}

// Batch acumula los eventos generados dentro de una transacción.
type Batch struct {
	events []entity.Event
}

// Add agrega eventos al lote.
func (b *Batch) Add(events ...entity.Event) {
	b.events = append(b.events, events...)
}

// Events eventos acumulados en orden de emisión.
func (b *Batch) Events() []entity.Event {
	return b.events
}

// NopLocker no bloquea; basta cuando un único proceso y el SELECT FOR UPDATE ya serializan.
type NopLocker struct{}

func (NopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }
