package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/leadbridge/leadbridge/internal/catalog"
	jobmetrics "github.com/leadbridge/leadbridge/internal/jobs"
	"github.com/leadbridge/leadbridge/internal/shopify"
)

// CatalogSyncJob runs catalog syncs queued by the API or the scheduler.
type CatalogSyncJob struct {
	Syncer  catalog.Synchronizer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCatalogSyncJob wires dependencies for the sync handler.
func NewCatalogSyncJob(syncer catalog.Synchronizer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogSyncJob {
	return &CatalogSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskCatalogSync tasks. A sync already running elsewhere is
// not an error; credential problems are not retried.
func (j *CatalogSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Syncer == nil {
		return errors.New("catalog sync: handler not configured")
	}
	var payload CatalogSyncPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	logger := j.logger()
	if payload.StoreAddress != "" {
		logger = logger.With(slog.String("store", payload.StoreAddress))
	}
	tracker := j.Metrics.Track(TaskCatalogSync)
	logger.Info("starting catalog sync")

	res, err := j.Syncer.Synchronize(ctx, catalog.SyncRequest{StoreAddress: payload.StoreAddress, ActorID: payload.ActorID})
	switch {
	case errors.Is(err, catalog.ErrSyncInProgress):
		tracker.Skip()
		logger.Info("catalog sync already running, skipping")
		return nil
	case errors.Is(err, catalog.ErrMissingCredentials), errors.Is(err, shopify.ErrInvalidStoreAddress):
		logger.Error("catalog sync misconfigured", slog.Any("error", err))
		return tracker.End(fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	case err != nil:
		logger.Error("catalog sync", slog.Int("saved", res.Saved), slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed catalog sync",
		slog.Int("saved", res.Saved),
		slog.Int("fetched", res.Fetched),
		slog.Int("total_remote", res.TotalRemote),
		slog.Int("errors", res.Errors),
	)
	return tracker.End(nil)
}

func (j *CatalogSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogSync))
	}
	return slog.Default().With(slog.String("job", TaskCatalogSync))
}
