package shared

import (
	"fmt"
	"strings"
)

// CatalogSyncLockKey builds the redis key guarding a catalog sync for one store.
func CatalogSyncLockKey(store string) string {
	return fmt.Sprintf("catalog:sync:%s:lock", strings.ToLower(store))
}
