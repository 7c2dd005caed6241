package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quillhq/issuegw/internal/store"
)

// Handler ingests GitHub webhook deliveries:
// verify signature -> decode JSON -> classify event -> normalize -> store.
type Handler struct {
	config Config
	store  EventStore
	logger *slog.Logger
}

// New creates a webhook handler.
func New(config Config, eventStore EventStore, logger *slog.Logger) *Handler {
	if config.MaxBodySize == 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	return &Handler{
		config: config,
		store:  eventStore,
		logger: logger,
	}
}

// Register mounts the webhook routes on a chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/webhook", h.handleLiveness)
	r.Post("/webhook", h.handleDelivery)
	r.Get("/events", h.handleEvents)
	r.Get("/healthz", h.handleHealthz)
}

// handleLiveness handles GET /webhook (GitHub endpoint verification).
func (h *Handler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, LivenessResponse{
		Message: h.config.Service + " webhook endpoint",
		Status:  "active",
	})
}

// handleDelivery handles POST /webhook.
//
// Terminal outcomes: 204 acknowledged, 401/400/413 rejected. No retries are
// attempted here; GitHub's delivery system owns retry semantics upstream.
func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Enforce body size limit
	limitedReader := io.LimitReader(r.Body, h.config.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > h.config.MaxBodySize {
		h.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	deliveryID := r.Header.Get(HeaderDelivery)
	eventType := r.Header.Get(HeaderEvent)

	// Verify HMAC signature (constant-time comparison). A missing signature
	// and a wrong signature produce the same response: no oracle for which
	// check failed.
	signature := r.Header.Get(HeaderSignature)
	if err := verifySignature(body, signature, h.config.Secret); err != nil {
		h.logger.Warn("webhook signature verification failed",
			"delivery_id", deliveryID,
			"event_type", eventType,
		)
		h.respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	// Ping is GitHub's webhook test: acknowledge, never store.
	if eventType == EventPing {
		h.logger.Info("received ping event", "delivery_id", deliveryID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if eventType != EventIssues && eventType != EventIssueComment {
		h.logger.Warn("unsupported event type",
			"delivery_id", deliveryID,
			"event_type", eventType,
		)
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported event type: %s", eventType))
		return
	}

	n := normalize(payload)

	rec := store.Record{
		EventType:   eventType,
		Action:      n.Action,
		IssueNumber: n.IssueNumber,
		Payload:     json.RawMessage(body),
	}
	if deliveryID != "" {
		rec.DeliveryID = &deliveryID
	}

	// Storage is best-effort: a failed insert is logged and swallowed so the
	// delivery is still acknowledged. GitHub disables webhooks after repeated
	// non-2xx responses.
	if err := h.store.InsertIfAbsent(ctx, rec); err != nil {
		h.logger.Error("failed to store webhook event",
			"delivery_id", deliveryID,
			"event_type", eventType,
			"action", n.Action,
			"error", err,
		)
	} else {
		h.logger.Info("webhook event processed",
			"delivery_id", deliveryID,
			"event_type", eventType,
			"action", n.Action,
			"issue_number", n.IssueNumber,
			"actor", n.Actor,
		)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleEvents handles GET /events?limit=N (operator debugging).
// Store failures degrade to an empty list; this endpoint never takes the
// service down.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to retrieve webhook events", "error", err)
		events = nil
	}
	if events == nil {
		events = []store.StoredEvent{}
	}

	h.respondJSON(w, http.StatusOK, EventsResponse{Events: events})
}

// handleHealthz handles GET /healthz.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, HealthzResponse{
		Status:    "healthy",
		Service:   h.config.Service,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// respondJSON sends a JSON response.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}
