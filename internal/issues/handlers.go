package issues

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// IssueService defines the upstream operations the HTTP handlers need.
type IssueService interface {
	Create(ctx context.Context, req CreateIssueRequest) (*Issue, error)
	List(ctx context.Context, q ListQuery) ([]Issue, error)
	Get(ctx context.Context, number int) (*Issue, error)
	Update(ctx context.Context, number int, req UpdateIssueRequest) (*Issue, error)
	Comment(ctx context.Context, number int, body string) (*Comment, error)
}

// Handler exposes the issue CRUD proxy over HTTP.
type Handler struct {
	service IssueService
	logger  *slog.Logger
}

func NewHandler(service IssueService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the proxy routes on a chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/issues", h.handleCreate)
	r.Get("/issues", h.handleList)
	r.Get("/issues/{number}", h.handleGet)
	r.Patch("/issues/{number}", h.handleUpdate)
	r.Post("/issues/{number}/comments", h.handleComment)
}

// handleCreate handles POST /issues.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		h.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	issue, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondUpstreamError(w, "create issue", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/issues/%d", issue.Number))
	h.respondJSON(w, http.StatusCreated, issue)
}

// handleList handles GET /issues?state=&labels=&page=&per_page=.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query().Get("state"), r.URL.Query().Get("labels"),
		r.URL.Query().Get("page"), r.URL.Query().Get("per_page"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := h.service.List(r.Context(), q)
	if err != nil {
		h.respondUpstreamError(w, "list issues", err)
		return
	}
	if found == nil {
		found = []Issue{}
	}

	h.respondJSON(w, http.StatusOK, found)
}

// handleGet handles GET /issues/{number}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	issue, err := h.service.Get(r.Context(), number)
	if err != nil {
		h.respondUpstreamError(w, "get issue", err)
		return
	}

	h.respondJSON(w, http.StatusOK, issue)
}

// handleUpdate handles PATCH /issues/{number}.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	var req UpdateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.State != nil && *req.State != "open" && *req.State != "closed" {
		h.respondError(w, http.StatusBadRequest, "state must be open or closed")
		return
	}

	issue, err := h.service.Update(r.Context(), number, req)
	if err != nil {
		h.respondUpstreamError(w, "update issue", err)
		return
	}

	h.respondJSON(w, http.StatusOK, issue)
}

// handleComment handles POST /issues/{number}/comments.
func (h *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		h.respondError(w, http.StatusBadRequest, "body is required")
		return
	}

	comment, err := h.service.Comment(r.Context(), number, req.Body)
	if err != nil {
		h.respondUpstreamError(w, "comment on issue", err)
		return
	}

	h.respondJSON(w, http.StatusCreated, comment)
}

func parseListQuery(state, labels, page, perPage string) (ListQuery, error) {
	q := ListQuery{
		State:   DefaultListState,
		Page:    DefaultListPage,
		PerPage: DefaultListPerPage,
	}

	if state != "" {
		if state != "open" && state != "closed" && state != "all" {
			return q, fmt.Errorf("state must be open, closed, or all")
		}
		q.State = state
	}
	if labels != "" {
		q.Labels = strings.Split(labels, ",")
	}
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return q, fmt.Errorf("page must be a positive integer")
		}
		q.Page = n
	}
	if perPage != "" {
		n, err := strconv.Atoi(perPage)
		if err != nil || n < 1 || n > MaxListPerPage {
			return q, fmt.Errorf("per_page must be between 1 and %d", MaxListPerPage)
		}
		q.PerPage = n
	}

	return q, nil
}

// issueNumber extracts and validates the {number} URL parameter.
func (h *Handler) issueNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "number")
	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		h.respondError(w, http.StatusBadRequest, "invalid issue number")
		return 0, false
	}
	return number, true
}

// respondUpstreamError maps a service error to an HTTP response: GitHub
// statuses pass through with a generic body, everything else is a 502.
func (h *Handler) respondUpstreamError(w http.ResponseWriter, op string, err error) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		h.logger.Warn("github api error", "op", op, "status", ue.StatusCode)
		h.respondError(w, ue.StatusCode, "github api error")
		return
	}
	h.logger.Error("github api unreachable", "op", op, "error", err)
	h.respondError(w, http.StatusBadGateway, "github api unavailable")
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message})
}
