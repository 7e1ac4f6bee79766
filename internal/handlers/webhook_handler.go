package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/audiencelab/leadpipe/common/httputil"
	"github.com/audiencelab/leadpipe/common/logging"
	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/ratelimit"
	"github.com/audiencelab/leadpipe/internal/service"
	"github.com/audiencelab/leadpipe/internal/validator"
)

// WebhookHandler terminates the inbound webhook endpoints. It gates on the
// per-source shared secret, applies rate limiting, and maps pipeline
// outcomes to HTTP: every terminal outcome including rejected is a 200;
// 4xx is reserved for malformed or unparseable input.
type WebhookHandler struct {
	pipeline         *service.Pipeline
	limiter          ratelimit.RateLimiter
	tokens           map[models.SourceKind]string
	defaultWorkspace string
	maxEventSize     int64
	logger           *logging.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(p *service.Pipeline, limiter ratelimit.RateLimiter, tokens map[models.SourceKind]string, defaultWorkspace string, maxEventSize int64, logger *logging.Logger) *WebhookHandler {
	return &WebhookHandler{
		pipeline:         p,
		limiter:          limiter,
		tokens:           tokens,
		defaultWorkspace: defaultWorkspace,
		maxEventSize:     maxEventSize,
		logger:           logger,
	}
}

// HandleSuperPixel receives real-time identification pings.
func (h *WebhookHandler) HandleSuperPixel(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, models.SourceSuperPixel)
}

// HandleAudienceSync receives CDP destination rows.
func (h *WebhookHandler) HandleAudienceSync(w http.ResponseWriter, r *http.Request) {
	h.handleEvent(w, r, models.SourceAudienceSync)
}

func (h *WebhookHandler) handleEvent(w http.ResponseWriter, r *http.Request, source models.SourceKind) {
	if !h.admit(w, r, source) {
		return
	}

	raw, body, err := httputil.ReadJSONBody(r, h.maxEventSize)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	workspaceID := h.workspaceID(r)
	eventID := h.pipeline.EventID(body, source, raw)

	result, err := h.pipeline.ProcessEvent(r.Context(), eventID, workspaceID, source, body, raw)
	if err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			httputil.WriteError(w, http.StatusBadRequest, ve.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "pipeline failed",
			logging.EventID(eventID),
			logging.Source(string(source)),
			logging.Error(err),
		)
		httputil.WriteError(w, http.StatusServiceUnavailable, "temporarily unable to process event")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.WebhookResponse{
		EventID:   result.EventID,
		Outcome:   result.Outcome,
		Reason:    string(result.Reason),
		Duplicate: result.Duplicate,
	})
}

// HandleBatch receives a bundle of export rows. Partial success is normal:
// the summary reports per-row outcomes and the response is still a 200.
func (h *WebhookHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w, r, models.SourceBatchExport) {
		return
	}

	raw, body, err := httputil.ReadJSONBody(r, h.maxEventSize)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.pipeline.ProcessBatch(r.Context(), h.workspaceID(r), body, raw)
	if err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			httputil.WriteError(w, http.StatusBadRequest, ve.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "batch processing failed", logging.Error(err))
		httputil.WriteError(w, http.StatusServiceUnavailable, "temporarily unable to process bundle")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

// admit enforces method, shared-secret token, and rate limit.
func (h *WebhookHandler) admit(w http.ResponseWriter, r *http.Request, source models.SourceKind) bool {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	expected := h.tokens[source]
	if expected != "" {
		token := httputil.BearerToken(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid webhook token")
			return false
		}
	}

	allowed, err := h.limiter.Allow(r.Context(), string(source))
	if err != nil {
		// Fail open; the limiter logs its own trouble.
		h.logger.WarnContext(r.Context(), "rate limiter unavailable", logging.Error(err))
	}
	if !allowed {
		httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}

func (h *WebhookHandler) workspaceID(r *http.Request) string {
	if ws := r.Header.Get("X-Workspace-ID"); ws != "" {
		return ws
	}
	if ws := r.URL.Query().Get("workspace_id"); ws != "" {
		return ws
	}
	return h.defaultWorkspace
}

// Health reports liveness.
func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports readiness.
func (h *WebhookHandler) Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
