package shopify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAPI struct {
	listErrs  []error
	countErrs []error
	lists     int
	counts    int
	cursors   []int64
}

func (s *scriptedAPI) Count(_ context.Context, _ string) (int, error) {
	s.counts++
	if len(s.countErrs) > 0 {
		err := s.countErrs[0]
		s.countErrs = s.countErrs[1:]
		return 0, err
	}
	return 7, nil
}

func (s *scriptedAPI) List(_ context.Context, _ string, sinceID int64) (Page, error) {
	s.lists++
	s.cursors = append(s.cursors, sinceID)
	if len(s.listErrs) > 0 {
		err := s.listErrs[0]
		s.listErrs = s.listErrs[1:]
		return Page{}, err
	}
	return Page{Products: []Product{{ID: 3}}, Next: 3}, nil
}

type sleepRecorder struct {
	pauses []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.pauses = append(s.pauses, d)
	return nil
}

func TestRateLimitedRetriesIdenticalRequest(t *testing.T) {
	api := &scriptedAPI{listErrs: []error{&StatusError{Code: http.StatusTooManyRequests}}}
	rec := &sleepRecorder{}
	throttled := 0
	rl := &RateLimited{API: api, Sleep: rec.sleep, OnThrottle: func(string) { throttled++ }}

	page, err := rl.List(context.Background(), StatusActive, 99)
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, 2, api.lists)
	assert.Equal(t, []int64{99, 99}, api.cursors)
	assert.Equal(t, []time.Duration{RateLimitBackoff}, rec.pauses)
	assert.Equal(t, 1, throttled)
}

func TestRateLimitedCountRetries(t *testing.T) {
	api := &scriptedAPI{countErrs: []error{
		&StatusError{Code: http.StatusTooManyRequests},
		&StatusError{Code: http.StatusTooManyRequests},
	}}
	rec := &sleepRecorder{}
	rl := &RateLimited{API: api, Sleep: rec.sleep}

	n, err := rl.Count(context.Background(), StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 3, api.counts)
	assert.Len(t, rec.pauses, 2)
}

func TestRateLimitedPassesOtherErrorsThrough(t *testing.T) {
	boom := &StatusError{Code: http.StatusInternalServerError}
	api := &scriptedAPI{listErrs: []error{boom}}
	rec := &sleepRecorder{}
	rl := &RateLimited{API: api, Sleep: rec.sleep}

	_, err := rl.List(context.Background(), StatusActive, 0)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, api.lists)
	assert.Empty(t, rec.pauses)
}

func TestRateLimitedStopsOnContextCancel(t *testing.T) {
	api := &scriptedAPI{listErrs: []error{ErrRateLimited, ErrRateLimited, ErrRateLimited}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rl := &RateLimited{API: api, Backoff: time.Hour}

	_, err := rl.List(ctx, StatusActive, 0)
	require.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, api.lists)
}
