package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/internal/domain"
	"github.com/jhoicas/erp-fulfillment/internal/infrastructure/redis"
	"github.com/jhoicas/erp-fulfillment/pkg/config"
)

// Requiere un Redis real: TEST_REDIS_ADDRESS=localhost:6379
func TestLocker_ExclusionYResourceBusy(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS no definido")
	}
	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer rdb.Close()

	locker := redis.NewLocker(rdb, "test:", 5*time.Second, 30*time.Millisecond, nil)
	key := "item:" + uuid.New().String()

	unlock, err := locker.Lock(ctx, key)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, domain.ErrResourceBusy)

	unlock()
	again, err := locker.Lock(ctx, key)
	require.NoError(t, err, "tras liberar se debe poder obtener de nuevo")
	again()
}
