package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/leadbridge/leadbridge/internal/catalog"
	"github.com/leadbridge/leadbridge/internal/observability"
	"github.com/leadbridge/leadbridge/internal/shared"
	"github.com/leadbridge/leadbridge/internal/shopify"
)

// shopifyTimeout bounds a single Admin API call, not the whole sync.
const shopifyTimeout = 60 * time.Second

// NewCatalogSyncer wires the catalog syncer shared by the API server and the
// worker.
func NewCatalogSyncer(cfg *Config, pool *pgxpool.Pool, rdb *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *catalog.Syncer {
	repo := catalog.NewRepository(pool)
	httpClient := &http.Client{Timeout: shopifyTimeout}
	return catalog.NewSyncer(catalog.SyncerParams{
		Products: repo,
		Runs:     repo,
		Guard:    catalog.NewGuard(rdb, cfg.CatalogSyncLockTTL, logger),
		NewAPI: func(store, token string) (shopify.CatalogAPI, error) {
			return shopify.NewClient(store, token,
				shopify.WithHTTPClient(httpClient),
				shopify.WithAPIVersion(cfg.ShopifyAPIVersion),
			)
		},
		Fallback: catalog.Credentials{
			StoreAddress: cfg.ShopifyStoreURL,
			AccessToken:  cfg.ShopifyAccessToken,
		},
		Recorder: metrics.CatalogSync(),
		Auditor:  shared.NewAuditLogger(pool),
		Logger:   logger,
	})
}
