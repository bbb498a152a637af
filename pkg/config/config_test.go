package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-fulfillment/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Count.VarianceThresholdPct.Equal(decimal.NewFromInt(5)), "umbral por defecto 5%%")
	assert.Equal(t, 3, cfg.Ledger.BusyRetries)
	assert.Equal(t, 2*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, "MAIN", cfg.Ledger.DefaultLocation)
	assert.Equal(t, "memory", cfg.Storage)
}

func TestLoad_LeeUmbralYTimeoutDesdeEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("COUNT_VARIANCE_THRESHOLD_PCT", "2.5")
	t.Setenv("LEDGER_LOCK_TIMEOUT_MS", "150")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Count.VarianceThresholdPct.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 150*time.Millisecond, cfg.Ledger.LockTimeout)
}

func TestLoad_RechazaDriverDesconocido(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RechazaUmbralInvalido(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("COUNT_VARIANCE_THRESHOLD_PCT", "cinco")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDSN_CodificaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "erp", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/erp?sslmode=disable", c.DSN())
}
