// Package dbtest starts throwaway PostgreSQL containers for integration tests
// built with the integration tag.
package dbtest
