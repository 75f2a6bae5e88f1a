package shopify

import (
	"strings"
)

const adminConsolePrefix = "admin.shopify.com/store"

// NormalizeStoreAddress reduces a user supplied store address to the bare
// host the Admin API is served from. Scheme and any path are removed and
// admin console URLs are rewritten to <name>.myshopify.com.
func NormalizeStoreAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	lower := strings.ToLower(addr)
	switch {
	case strings.HasPrefix(lower, "https://"):
		addr = addr[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		addr = addr[len("http://"):]
	}
	addr = strings.TrimRight(addr, "/")

	if idx := strings.Index(strings.ToLower(addr), adminConsolePrefix); idx >= 0 {
		rest := addr[idx+len(adminConsolePrefix):]
		if rest == "" || rest[0] == '/' {
			name, _, _ := strings.Cut(strings.TrimLeft(rest, "/"), "/")
			if name == "" {
				return "", ErrInvalidStoreAddress
			}
			addr = name + ".myshopify.com"
		}
	}
	addr, _, _ = strings.Cut(addr, "/")

	if addr == "" {
		return "", ErrInvalidStoreAddress
	}
	return addr, nil
}
