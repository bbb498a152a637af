package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/pkg/logger"
)

// Locker candado distribuido. Antecede al SELECT FOR UPDATE para que varias instancias
// no compitan por la misma fila; si no se obtiene a tiempo devuelve ErrResourceBusy.
type Locker struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	log    *logger.Logger
}

// NewLocker crea el candado. ttl es la vida máxima del candado, wait cuánto se reintenta obtenerlo.
func NewLocker(client redislock.RedisClient, prefix string, ttl, wait time.Duration, log *logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{
		client: redislock.New(client),
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
		log:    log.Component("redislock"),
	}
}

// Lock obtiene el candado de key reintentando con espera lineal hasta wait.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	full := fmt.Sprintf("lock:%s%s", l.prefix, key)

	opts := &redislock.Options{}
	if l.wait > 0 {
		step := 10 * time.Millisecond
		opts.RetryStrategy = redislock.LimitRetry(redislock.LinearBackoff(step), int(l.wait/step))
	}
	lock, err := l.client.Obtain(ctx, full, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("candado %s: %w", key, domain.ErrResourceBusy)
	}
	if err != nil {
		return nil, fmt.Errorf("redis obtain %s: %w", key, err)
	}

	return func() {
		// contexto propio: el del request puede estar cancelado al liberar
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", full).Msg("error liberando candado redis")
		}
	}, nil
}
