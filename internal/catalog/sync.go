package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leadbridge/leadbridge/internal/shared"
	"github.com/leadbridge/leadbridge/internal/shopify"
)

// Item outcomes reported to SyncRecorder.
const (
	OutcomeSaved = "saved"
	OutcomeError = "error"
)

// RemoteWriter applies one reconciled remote product.
type RemoteWriter interface {
	UpsertRemote(ctx context.Context, u RemoteUpsert) error
}

// RunStore persists sync run bookkeeping.
type RunStore interface {
	StartRun(ctx context.Context, store string) (uuid.UUID, error)
	FinishRun(ctx context.Context, id uuid.UUID, res SyncResult, runErr error) error
}

// SyncRecorder receives sync progress for metrics.
type SyncRecorder interface {
	ObservePage(state string)
	ObserveItem(outcome string)
	ObserveRateLimit(op string)
}

// Runner serializes syncs per store.
type Runner interface {
	Run(ctx context.Context, store string, fn func(context.Context) (SyncResult, error)) (SyncResult, error)
}

// APIFactory builds an Admin API client for a canonical store.
type APIFactory func(store, accessToken string) (shopify.CatalogAPI, error)

// Credentials are the configured fallbacks for a sync request.
type Credentials struct {
	StoreAddress string
	AccessToken  string
}

// SyncerParams groups the dependencies of a Syncer.
type SyncerParams struct {
	Products RemoteWriter
	Runs     RunStore
	Guard    Runner
	NewAPI   APIFactory
	Fallback Credentials
	Sleep    shopify.Sleeper
	Backoff  time.Duration
	Recorder SyncRecorder
	Auditor  Auditor
	Logger   *slog.Logger
}

// Syncer mirrors the Shopify catalog into local storage.
type Syncer struct {
	p SyncerParams
}

// NewSyncer builds a Syncer, filling unset dependencies with defaults.
func NewSyncer(p SyncerParams) *Syncer {
	if p.Sleep == nil {
		p.Sleep = shopify.Sleep
	}
	if p.Backoff <= 0 {
		p.Backoff = shopify.RateLimitBackoff
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.NewAPI == nil {
		p.NewAPI = func(store, token string) (shopify.CatalogAPI, error) {
			client, err := shopify.NewClient(store, token)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	return &Syncer{p: p}
}

// Synchronize runs one full sync across every lifecycle state. Only
// credential problems and a concurrent sync are fatal; count, page and item
// failures are logged and reflected in the counters.
func (s *Syncer) Synchronize(ctx context.Context, req SyncRequest) (SyncResult, error) {
	address := req.StoreAddress
	if address == "" {
		address = s.p.Fallback.StoreAddress
	}
	token := req.AccessToken
	if token == "" {
		token = s.p.Fallback.AccessToken
	}
	if address == "" || token == "" {
		return SyncResult{}, ErrMissingCredentials
	}
	store, err := shopify.NormalizeStoreAddress(address)
	if err != nil {
		return SyncResult{}, err
	}
	api, err := s.p.NewAPI(store, token)
	if err != nil {
		return SyncResult{}, fmt.Errorf("catalog: build client: %w", err)
	}

	run := func(ctx context.Context) (SyncResult, error) {
		return s.run(ctx, store, api, req.ActorID)
	}
	if s.p.Guard == nil {
		return run(ctx)
	}
	return s.p.Guard.Run(ctx, store, run)
}

func (s *Syncer) run(ctx context.Context, store string, api shopify.CatalogAPI, actorID int64) (SyncResult, error) {
	logger := s.p.Logger.With(slog.String("store", store))
	started := time.Now()
	logger.Info("catalog sync started")

	runID := uuid.Nil
	if s.p.Runs != nil {
		id, err := s.p.Runs.StartRun(ctx, store)
		if err != nil {
			logger.Warn("record sync run start", slog.Any("error", err))
		} else {
			runID = id
		}
	}

	limited := &shopify.RateLimited{
		API:     api,
		Backoff: s.p.Backoff,
		Sleep:   s.p.Sleep,
		Logger:  logger,
	}
	if s.p.Recorder != nil {
		limited.OnThrottle = s.p.Recorder.ObserveRateLimit
	}

	var res SyncResult
	states := shopify.LifecycleStates()
	for _, state := range states {
		n, err := limited.Count(ctx, state)
		if err != nil {
			logger.Warn("count products failed", slog.String("state", state), slog.Any("error", err))
			continue
		}
		logger.Info("remote product count", slog.String("state", state), slog.Int("count", n))
		res.TotalRemote += n
	}

	for _, state := range states {
		s.syncState(ctx, logger, limited, state, &res)
	}

	runErr := ctx.Err()
	if s.p.Runs != nil && runID != uuid.Nil {
		if err := s.p.Runs.FinishRun(context.WithoutCancel(ctx), runID, res, runErr); err != nil {
			logger.Warn("record sync run finish", slog.Any("error", err))
		}
	}
	if s.p.Auditor != nil {
		entry := shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditCatalogSync,
			Entity:   "catalog_sync_run",
			EntityID: runEntityID(runID),
			Meta: map[string]any{
				"store":       store,
				"count":       res.Saved,
				"totalRemote": res.TotalRemote,
				"fetched":     res.Fetched,
				"errors":      res.Errors,
			},
		}
		if err := s.p.Auditor.Record(context.WithoutCancel(ctx), entry); err != nil {
			logger.Warn("audit sync run", slog.Any("error", err))
		}
	}

	logger.Info("catalog sync finished",
		slog.Int("count", res.Saved),
		slog.Int("total_remote", res.TotalRemote),
		slog.Int("fetched", res.Fetched),
		slog.Int("errors", res.Errors),
		slog.Duration("elapsed", time.Since(started)))
	if runErr != nil {
		return res, fmt.Errorf("catalog: sync interrupted: %w", runErr)
	}
	return res, nil
}

// syncState walks one lifecycle state page by page until an empty page. Any
// error other than a rate limit abandons the state.
func (s *Syncer) syncState(ctx context.Context, logger *slog.Logger, api shopify.Lister, state string, res *SyncResult) {
	var sinceID int64
	for {
		page, err := api.List(ctx, state, sinceID)
		if err != nil {
			logger.Error("fetch products failed, skipping state", slog.String("state", state), slog.Any("error", err))
			return
		}
		if page.Empty() {
			return
		}
		res.Fetched += len(page.Products)
		if s.p.Recorder != nil {
			s.p.Recorder.ObservePage(state)
		}
		logger.Debug("fetched product page",
			slog.String("state", state),
			slog.Int64("since_id", sinceID),
			slog.Int("items", len(page.Products)))

		for _, item := range page.Products {
			u := FromRemote(item)
			if err := s.p.Products.UpsertRemote(ctx, u); err != nil {
				res.Errors++
				s.observeItem(OutcomeError)
				logger.Error("save product failed",
					slog.String("remote_id", u.RemoteID),
					slog.String("sku", u.SKU),
					slog.Any("error", err))
				continue
			}
			res.Saved++
			s.observeItem(OutcomeSaved)
		}

		sinceID = page.Next
		if err := s.p.Sleep(ctx, shopify.PagePause); err != nil {
			logger.Warn("page pause interrupted", slog.String("state", state), slog.Any("error", err))
			return
		}
	}
}

func (s *Syncer) observeItem(outcome string) {
	if s.p.Recorder != nil {
		s.p.Recorder.ObserveItem(outcome)
	}
}

func runEntityID(id uuid.UUID) string {
	if id == uuid.Nil {
		return "unrecorded"
	}
	return id.String()
}
