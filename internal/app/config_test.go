package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_STORE_URL", "https://demo.myshopify.com/")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "2024-01", cfg.ShopifyAPIVersion)
	assert.Equal(t, 30*time.Minute, cfg.CatalogSyncLockTTL)
	assert.Equal(t, "https://demo.myshopify.com/", cfg.ShopifyStoreURL)
	assert.Empty(t, cfg.CatalogSyncCron)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
	assert.Equal(t, 5, cfg.WorkerConcurrency)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsNonPositiveLockTTL(t *testing.T) {
	t.Setenv("CATALOG_SYNC_LOCK_TTL", "0s")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestInTestModeRefresh(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
