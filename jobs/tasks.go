package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskCatalogSync mirrors the Shopify catalog into local storage.
	TaskCatalogSync = "catalog:sync"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	if payload.To == "" {
		return nil, fmt.Errorf("jobs: send email: recipient required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// CatalogSyncPayload selects the store to sync. An empty StoreAddress uses
// the configured store; the access token always comes from configuration.
type CatalogSyncPayload struct {
	StoreAddress string `json:"store_address,omitempty"`
	ActorID      int64  `json:"actor_id,omitempty"`
}

// CatalogSyncTaskID names the queued sync of a normalized store address; an
// empty store means the configured one.
func CatalogSyncTaskID(store string) string {
	if store == "" {
		return "catalog-sync:default"
	}
	return "catalog-sync:" + strings.ToLower(store)
}

// NewCatalogSyncTask constructs a catalog sync task.
func NewCatalogSyncTask(payload CatalogSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogSync, data, asynq.MaxRetry(2)), nil
}
