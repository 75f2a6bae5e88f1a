package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/leadbridge/leadbridge/internal/shared"
)

// DefaultLockTTL bounds how long a crashed sync can block the next one.
const DefaultLockTTL = 30 * time.Minute

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// Guard allows at most one sync per store. Callers in the same process join
// the running sync; a sync running in another process yields ErrSyncInProgress.
type Guard struct {
	group  singleflight.Group
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewGuard builds a Guard. A nil client limits the guard to this process.
func NewGuard(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Guard {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{client: client, ttl: ttl, logger: logger}
}

// Run executes fn unless a sync for store is already running. The shared run
// is detached from the caller that started it and is bounded by the lock TTL;
// each caller stops waiting when its own ctx ends.
func (g *Guard) Run(ctx context.Context, store string, fn func(context.Context) (SyncResult, error)) (SyncResult, error) {
	key := shared.CatalogSyncLockKey(store)
	resultChan := g.group.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.ttl)
		defer cancel()
		release, err := g.acquire(runCtx, key)
		if err != nil {
			return SyncResult{}, err
		}
		defer release()
		return fn(runCtx)
	})
	select {
	case <-ctx.Done():
		return SyncResult{}, ctx.Err()
	case res := <-resultChan:
		out, _ := res.Val.(SyncResult)
		return out, res.Err
	}
}

func (g *Guard) acquire(ctx context.Context, key string) (func(), error) {
	if g.client == nil {
		return func() {}, nil
	}
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("catalog: acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, g.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			g.logger.Warn("release sync lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
