package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/villapost/internal/domain/queue/entity"
	"github.com/vadim/villapost/internal/domain/queue/policy"
	"github.com/vadim/villapost/internal/httpx/response"
)

// QueuePolicy defines the interface for scheduled-post operations
// Interface is defined by consumer (handler), not provider (policy)
type QueuePolicy interface {
	Enqueue(ctx context.Context, in policy.EnqueueInput) (*policy.EnqueueOutput, error)
	Queue(ctx context.Context, accountID string) (*policy.QueueOutput, error)
	Delete(ctx context.Context, accountID, postID string) error
	CleanupPublished(ctx context.Context, accountID string) (int64, error)
}

// QueueHandler handles HTTP requests for the scheduled-post queue
type QueueHandler struct {
	policy QueuePolicy
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(p QueuePolicy) *QueueHandler {
	return &QueueHandler{policy: p}
}

// RegisterRoutes registers queue routes
func (h *QueueHandler) RegisterRoutes(r chi.Router) {
	r.Route("/scheduled-posts", func(r chi.Router) {
		r.Post("/", h.Enqueue())
		r.Get("/", h.List())
		r.Delete("/published", h.CleanupPublished())
		r.Delete("/{id}", h.Delete())
	})
}

// EnqueueRequest represents the request body for queueing listing URLs
type EnqueueRequest struct {
	AccountID string   `json:"account_id"`
	URLs      []string `json:"urls"`
}

// EnqueueResponse represents the response after queueing
type EnqueueResponse struct {
	StartPosition int `json:"start_position"`
	Queued        int `json:"queued"`
}

// Enqueue handles POST /scheduled-posts
func (h *QueueHandler) Enqueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.AccountID == "" {
			response.BadRequest(w, "account_id is required")
			return
		}
		if len(req.URLs) == 0 {
			response.BadRequest(w, "at least one url is required")
			return
		}

		out, err := h.policy.Enqueue(r.Context(), policy.EnqueueInput{
			AccountID: req.AccountID,
			URLs:      req.URLs,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.Created(w, EnqueueResponse{
			StartPosition: out.StartPosition,
			Queued:        out.Queued,
		})
	}
}

// ListResponse represents the response for listing an account's queue
type ListResponse struct {
	Posts []entity.ScheduledPost `json:"posts"`
	Stats entity.QueueStats      `json:"stats"`
}

// List handles GET /scheduled-posts?account_id=
func (h *QueueHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			response.BadRequest(w, "account_id is required")
			return
		}

		out, err := h.policy.Queue(r.Context(), accountID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, ListResponse{Posts: out.Posts, Stats: out.Stats})
	}
}

// Delete handles DELETE /scheduled-posts/{id}?account_id=
func (h *QueueHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			response.BadRequest(w, "account_id is required")
			return
		}

		if err := h.policy.Delete(r.Context(), accountID, id); err != nil {
			handleDomainError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// CleanupResponse represents the response after removing published posts
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// CleanupPublished handles DELETE /scheduled-posts/published?account_id=
func (h *QueueHandler) CleanupPublished() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			response.BadRequest(w, "account_id is required")
			return
		}

		deleted, err := h.policy.CleanupPublished(r.Context(), accountID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, CleanupResponse{Deleted: deleted})
	}
}

// handleDomainError maps domain errors to HTTP status codes
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrPostNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrEmptyAccountID),
		errors.Is(err, entity.ErrEmptyURL),
		errors.Is(err, entity.ErrNoURLs),
		errors.Is(err, entity.ErrInvalidPosition):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrSweepInProgress):
		response.Error(w, http.StatusConflict, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
