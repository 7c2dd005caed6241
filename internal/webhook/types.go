package webhook

import (
	"context"

	"github.com/quillhq/issuegw/internal/store"
)

// EventStore defines the persistence interface the pipeline writes to.
type EventStore interface {
	InsertIfAbsent(ctx context.Context, rec store.Record) error
	Recent(ctx context.Context, limit int) ([]store.StoredEvent, error)
}

// GitHub webhook headers.
const (
	HeaderSignature = "X-Hub-Signature-256"
	HeaderEvent     = "X-GitHub-Event"
	HeaderDelivery  = "X-GitHub-Delivery"
)

// Event types the pipeline accepts.
const (
	EventPing         = "ping"
	EventIssues       = "issues"
	EventIssueComment = "issue_comment"
)

// DefaultMaxBodySize bounds webhook payloads (1 MB).
const DefaultMaxBodySize = 1048576

// Config holds webhook pipeline configuration.
type Config struct {
	// Secret is the shared HMAC secret for signature verification.
	Secret string

	// Service is the service name reported by /healthz.
	Service string

	// MaxBodySize is the maximum allowed request body size in bytes (default: 1MB).
	MaxBodySize int64
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EventsResponse is the JSON response for GET /events.
type EventsResponse struct {
	Events []store.StoredEvent `json:"events"`
}

// HealthzResponse is the JSON response for GET /healthz.
type HealthzResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// LivenessResponse is the JSON response for GET /webhook.
type LivenessResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
