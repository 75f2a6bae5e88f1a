package catalog

import (
	"strconv"
	"strings"

	"github.com/leadbridge/leadbridge/internal/shopify"
)

// SyntheticSKU is the sku assigned to a remote product whose variants carry none.
func SyntheticSKU(remoteID string) string {
	return "SHOPIFY-" + remoteID
}

// PrimarySKU returns the first variant sku that is not blank, exactly as the
// remote supplied it, or the synthetic sku when every variant is blank.
func PrimarySKU(remoteID string, variants []shopify.Variant) string {
	for _, v := range variants {
		if strings.TrimSpace(v.SKU) != "" {
			return v.SKU
		}
	}
	return SyntheticSKU(remoteID)
}

// FlattenVariants keeps every variant in remote order.
func FlattenVariants(variants []shopify.Variant) []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, Variant{SKU: v.SKU, Title: v.Title})
	}
	return out
}

// CategoryOrDefault maps an empty product type to DefaultCategory.
func CategoryOrDefault(productType string) string {
	if productType == "" {
		return DefaultCategory
	}
	return productType
}

// FromRemote maps a Shopify product to the local upsert shape.
func FromRemote(p shopify.Product) RemoteUpsert {
	remoteID := strconv.FormatInt(p.ID, 10)
	return RemoteUpsert{
		RemoteID: remoteID,
		Name:     p.Title,
		SKU:      PrimarySKU(remoteID, p.Variants),
		Category: CategoryOrDefault(p.ProductType),
		Variants: FlattenVariants(p.Variants),
	}
}
