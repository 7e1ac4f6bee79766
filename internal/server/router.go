package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/audiencelab/leadpipe/common/middleware"
	"github.com/audiencelab/leadpipe/internal/handlers"
)

// NewRouter constructs a ServeMux with webhook API routes registered.
func NewRouter(h *handlers.WebhookHandler) http.Handler {
	mux := http.NewServeMux()

	// Webhook endpoints, one per source kind
	mux.HandleFunc("/v1/webhooks/superpixel", h.HandleSuperPixel)
	mux.HandleFunc("/v1/webhooks/audiencesync", h.HandleAudienceSync)
	mux.HandleFunc("/v1/webhooks/batch", h.HandleBatch)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
