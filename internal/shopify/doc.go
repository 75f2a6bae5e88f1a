// Package shopify talks to the Shopify REST Admin API: product counts and
// since_id paginated product listings for one store.
package shopify
