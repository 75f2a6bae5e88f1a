package catalog

import "github.com/leadbridge/leadbridge/internal/platform/httpx"

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
	defaultRunLimit    = 20
)

// CreateProductRequest is the payload for a manual product.
type CreateProductRequest struct {
	Name     string `json:"name" validate:"required,max=300"`
	SKU      string `json:"sku" validate:"required,max=120"`
	Category string `json:"category" validate:"omitempty,max=120"`
}

// UpdateProductRequest is a partial update; empty fields keep current values.
type UpdateProductRequest struct {
	Name     string `json:"name" validate:"omitempty,max=300"`
	SKU      string `json:"sku" validate:"omitempty,max=120"`
	Category string `json:"category" validate:"omitempty,max=120"`
}

// SearchParams filters the product list.
type SearchParams struct {
	Query string
	Limit int
}

func (p SearchParams) normalized() SearchParams {
	switch {
	case p.Limit <= 0:
		p.Limit = defaultSearchLimit
	case p.Limit > maxSearchLimit:
		p.Limit = maxSearchLimit
	}
	return p
}

type syncRequestBody struct {
	StoreURL    string `json:"storeUrl" validate:"omitempty,max=500"`
	AccessToken string `json:"accessToken" validate:"omitempty,max=500"`
}

// syncFailure is the problem body of a failed sync; Result holds whatever
// was stored before the failure.
type syncFailure struct {
	httpx.ProblemDetail
	Result SyncResult `json:"result"`
}

type syncResponse struct {
	Message string `json:"message"`
	SyncResult
}
