package shopify

// Product lifecycle states accepted by the status filter.
const (
	StatusActive   = "active"
	StatusDraft    = "draft"
	StatusArchived = "archived"
)

// LifecycleStates lists every product status in sync order.
func LifecycleStates() []string {
	return []string{StatusActive, StatusDraft, StatusArchived}
}

// Product is the subset of a Shopify product the catalog consumes.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ProductType string    `json:"product_type"`
	Variants    []Variant `json:"variants"`
}

// Variant is one purchasable option of a product. SKU may be empty.
type Variant struct {
	ID    int64  `json:"id"`
	SKU   string `json:"sku"`
	Title string `json:"title"`
}

// Page is one listing response. Next is the since_id for the following page
// and is only meaningful when Products is non-empty.
type Page struct {
	Products []Product
	Next     int64
}

// Empty reports whether the listing is exhausted.
func (p Page) Empty() bool {
	return len(p.Products) == 0
}
