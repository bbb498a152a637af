package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/lock"
)

func TestLocal_SerializaMismaClave(t *testing.T) {
	l := lock.NewLocal(time.Second)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "item:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside, "nunca debe haber dos dueños del mismo candado")
}

func TestLocal_ClavesDistintasNoSeBloquean(t *testing.T) {
	l := lock.NewLocal(50 * time.Millisecond)
	unlockA, err := l.Lock(context.Background(), "item:a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(context.Background(), "item:b")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_TimeoutDevuelveResourceBusy(t *testing.T) {
	l := lock.NewLocal(20 * time.Millisecond)
	unlock, err := l.Lock(context.Background(), "order:1")
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), "order:1")
	assert.ErrorIs(t, err, domain.ErrResourceBusy)
	assert.True(t, domain.IsRetryable(err))

	unlock()
	unlock() // liberar dos veces no debe bloquear ni entrar en pánico

	again, err := l.Lock(context.Background(), "order:1")
	require.NoError(t, err)
	again()
}

func TestLocal_RespetaCancelacion(t *testing.T) {
	l := lock.NewLocal(0)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
