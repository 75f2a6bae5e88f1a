package shopify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	// RateLimitBackoff is the pause after an HTTP 429 before retrying.
	RateLimitBackoff = 2 * time.Second
	// PagePause is the pause taken after every successful page.
	PagePause = 500 * time.Millisecond
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the production Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CatalogAPI is the combined read surface of the Admin API client.
type CatalogAPI interface {
	Counter
	Lister
}

// RateLimited retries calls that were rejected with HTTP 429. A retry repeats
// the identical request; there is no retry cap beyond context cancellation.
type RateLimited struct {
	API        CatalogAPI
	Backoff    time.Duration
	Sleep      Sleeper
	Logger     *slog.Logger
	OnThrottle func(op string)
}

// NewRateLimited wraps api with the default backoff and sleeper.
func NewRateLimited(api CatalogAPI, logger *slog.Logger) *RateLimited {
	return &RateLimited{API: api, Backoff: RateLimitBackoff, Sleep: Sleep, Logger: logger}
}

// Count implements Counter.
func (r *RateLimited) Count(ctx context.Context, status string) (int, error) {
	var n int
	err := r.retry(ctx, "count", status, func() error {
		var err error
		n, err = r.API.Count(ctx, status)
		return err
	})
	return n, err
}

// List implements Lister.
func (r *RateLimited) List(ctx context.Context, status string, sinceID int64) (Page, error) {
	var page Page
	err := r.retry(ctx, "list", status, func() error {
		var err error
		page, err = r.API.List(ctx, status, sinceID)
		return err
	})
	return page, err
}

func (r *RateLimited) retry(ctx context.Context, op, status string, call func() error) error {
	for {
		err := call()
		if err == nil || !errors.Is(err, ErrRateLimited) {
			return err
		}
		if r.OnThrottle != nil {
			r.OnThrottle(op)
		}
		if r.Logger != nil {
			r.Logger.Warn("shopify rate limit hit, backing off",
				slog.String("op", op),
				slog.String("state", status),
				slog.Duration("backoff", r.backoff()))
		}
		if err := r.sleeper()(ctx, r.backoff()); err != nil {
			return err
		}
	}
}

func (r *RateLimited) backoff() time.Duration {
	if r.Backoff > 0 {
		return r.Backoff
	}
	return RateLimitBackoff
}

func (r *RateLimited) sleeper() Sleeper {
	if r.Sleep != nil {
		return r.Sleep
	}
	return Sleep
}
