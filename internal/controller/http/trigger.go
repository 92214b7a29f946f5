package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/villapost/internal/domain/queue/policy"
	"github.com/vadim/villapost/internal/httpx/response"
)

// cronSecretHeader carries the shared secret the external cron sends
const cronSecretHeader = "X-Cron-Secret"

// SweepRunner runs one publishing sweep over all eligible accounts
type SweepRunner interface {
	ProcessDuePosts(ctx context.Context) (*policy.SweepOutput, error)
}

// TriggerHandler exposes the cron-driven sweep endpoint
type TriggerHandler struct {
	runner SweepRunner
	secret string
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(runner SweepRunner, secret string) *TriggerHandler {
	return &TriggerHandler{runner: runner, secret: secret}
}

// RegisterRoutes registers the trigger route
func (h *TriggerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/process", h.Process())
}

// Process handles POST /process. The secret is checked before any work
// happens, so an unauthorized call has no side effects.
func (h *TriggerHandler) Process() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(r) {
			response.Unauthorized(w, "invalid or missing cron secret")
			return
		}

		out, err := h.runner.ProcessDuePosts(r.Context())
		if err != nil {
			response.InternalError(w, "sweep failed")
			return
		}

		response.OK(w, out)
	}
}

func (h *TriggerHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return false
	}
	got := r.Header.Get(cronSecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}
