package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadbridge/leadbridge/internal/platform/httpx"
)

// DefaultCategory is stored when a product has no category.
const DefaultCategory = "Uncategorized"

var (
	// ErrNotFound indicates the product does not exist.
	ErrNotFound = fmt.Errorf("catalog: product %w", httpx.ErrNotFound)
	// ErrDuplicateSKU indicates another product already owns the sku.
	ErrDuplicateSKU = fmt.Errorf("catalog: sku %w", httpx.ErrDuplicate)
	// ErrMissingCredentials indicates neither the request nor the config supplied a store and token.
	ErrMissingCredentials = errors.New("catalog: store address and access token are required")
	// ErrSyncInProgress indicates another sync holds the lock for the store.
	ErrSyncInProgress = errors.New("catalog: sync already in progress for store")
)

// Variant is a stored product variant.
type Variant struct {
	SKU   string `json:"sku"`
	Title string `json:"title"`
}

// Product is a catalog entry, either entered manually or mirrored from Shopify.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Category  string    `json:"category"`
	RemoteID  *string   `json:"remoteId,omitempty"`
	Variants  []Variant `json:"variants"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RemoteUpsert is the local shape of one remote product.
type RemoteUpsert struct {
	RemoteID string
	Name     string
	SKU      string
	Category string
	Variants []Variant
}

// SyncRequest carries optional credentials overriding the configured ones.
type SyncRequest struct {
	StoreAddress string
	AccessToken  string
	ActorID      int64
}

// SyncResult aggregates the counters of one sync run.
type SyncResult struct {
	Saved       int `json:"count"`
	TotalRemote int `json:"totalRemote"`
	Fetched     int `json:"fetched"`
	Errors      int `json:"errors"`
}

// Sync run states.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// SyncRun is the persisted record of one sync.
type SyncRun struct {
	ID          uuid.UUID  `json:"id"`
	Store       string     `json:"store"`
	Status      string     `json:"status"`
	Saved       int        `json:"count"`
	TotalRemote int        `json:"totalRemote"`
	Fetched     int        `json:"fetched"`
	Errors      int        `json:"errors"`
	LastError   *string    `json:"lastError,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}
