package observability

import "github.com/prometheus/client_golang/prometheus"

// CatalogSyncMetrics counts catalog sync progress. It satisfies
// catalog.SyncRecorder.
type CatalogSyncMetrics struct {
	pages      *prometheus.CounterVec
	items      *prometheus.CounterVec
	rateLimits *prometheus.CounterVec
}

// NewCatalogSyncMetrics registers the sync collectors against registerer.
func NewCatalogSyncMetrics(registerer prometheus.Registerer) *CatalogSyncMetrics {
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leadbridge_catalog_sync_pages_total",
		Help: "Non-empty product pages fetched from Shopify by lifecycle state.",
	}, []string{"state"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leadbridge_catalog_sync_items_total",
		Help: "Remote products processed by outcome.",
	}, []string{"outcome"})
	rateLimits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leadbridge_catalog_sync_rate_limited_total",
		Help: "Shopify 429 responses by operation.",
	}, []string{"op"})
	registerer.MustRegister(pages, items, rateLimits)
	return &CatalogSyncMetrics{pages: pages, items: items, rateLimits: rateLimits}
}

// ObservePage counts one fetched page.
func (c *CatalogSyncMetrics) ObservePage(state string) {
	if c == nil {
		return
	}
	c.pages.WithLabelValues(state).Inc()
}

// ObserveItem counts one processed product.
func (c *CatalogSyncMetrics) ObserveItem(outcome string) {
	if c == nil {
		return
	}
	c.items.WithLabelValues(outcome).Inc()
}

// ObserveRateLimit counts one throttled call.
func (c *CatalogSyncMetrics) ObserveRateLimit(op string) {
	if c == nil {
		return
	}
	c.rateLimits.WithLabelValues(op).Inc()
}
