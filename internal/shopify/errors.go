package shopify

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited is returned when the store answers HTTP 429.
	ErrRateLimited = errors.New("shopify: rate limited")
	// ErrInvalidStoreAddress indicates an address that normalizes to nothing.
	ErrInvalidStoreAddress = errors.New("shopify: invalid store address")
)

// StatusError reports a non-2xx response from the Admin API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("shopify: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("shopify: unexpected status %d: %s", e.Code, e.Body)
}

// Unwrap exposes ErrRateLimited for 429 responses.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return nil
}
