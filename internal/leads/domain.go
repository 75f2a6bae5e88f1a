package leads

import (
	"errors"
	"fmt"
	"time"

	"github.com/leadbridge/leadbridge/internal/platform/httpx"
)

// Lead statuses.
const (
	StatusNew       = "New"
	StatusContacted = "Contacted"
	StatusConverted = "Converted"
	StatusLost      = "Lost"
)

// Defaults applied to leads opened by an inbound call.
const (
	UnknownCallerName = "Unknown Caller"
	PendingProduct    = "Pending"
)

var (
	// ErrNotFound indicates the lead does not exist.
	ErrNotFound = fmt.Errorf("leads: lead %w", httpx.ErrNotFound)
	// ErrDuplicatePhone indicates another lead already uses the phone number.
	ErrDuplicatePhone = fmt.Errorf("leads: phone %w", httpx.ErrDuplicate)
	// ErrInvalidIntakeKey indicates the inbound call webhook presented a wrong key.
	ErrInvalidIntakeKey = fmt.Errorf("leads: invalid intake key: %w", httpx.ErrUnauthorized)
	// ErrNoAssignee indicates there is no user to own an inbound lead.
	ErrNoAssignee = errors.New("leads: no users found to assign lead to")
	// ErrInvalidDate indicates a malformed date filter.
	ErrInvalidDate = fmt.Errorf("leads: dates must be YYYY-MM-DD: %w", httpx.ErrValidation)
)

// Lead is a prospective customer tracked by the sales team.
type Lead struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Product       string    `json:"product"`
	ProductSKU    *string   `json:"productSku,omitempty"`
	Status        string    `json:"status"`
	CreatedBy     int64     `json:"createdBy"`
	CreatedByName string    `json:"createdByName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateLeadRequest is the payload for a manually entered lead.
type CreateLeadRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone" validate:"required,max=40"`
	Product    string `json:"product" validate:"required,max=300"`
	ProductSKU string `json:"productSku" validate:"omitempty,max=120"`
}

// UpdateLeadRequest is a partial update; empty fields keep current values.
type UpdateLeadRequest struct {
	Status  string `json:"status" validate:"omitempty,oneof=New Contacted Converted Lost"`
	Name    string `json:"name" validate:"omitempty,max=200"`
	Product string `json:"product" validate:"omitempty,max=300"`
}

// IncomingCallRequest is posted by the telephony webhook.
type IncomingCallRequest struct {
	Phone  string `json:"phone" validate:"required,max=40"`
	APIKey string `json:"apiKey"`
}

// ListFilter selects leads by creation date. A zero Limit means no limit.
type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}
