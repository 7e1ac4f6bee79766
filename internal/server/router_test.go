package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencelab/leadpipe/common/logging"
	"github.com/audiencelab/leadpipe/internal/fingerprint"
	"github.com/audiencelab/leadpipe/internal/handlers"
	"github.com/audiencelab/leadpipe/internal/normalizer"
	"github.com/audiencelab/leadpipe/internal/notifier"
	"github.com/audiencelab/leadpipe/internal/ratelimit"
	"github.com/audiencelab/leadpipe/internal/repository"
	"github.com/audiencelab/leadpipe/internal/routing"
	"github.com/audiencelab/leadpipe/internal/service"
	"github.com/audiencelab/leadpipe/internal/validator"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	v, err := validator.New()
	require.NoError(t, err)

	pipeline := service.NewPipeline(
		v,
		normalizer.New(normalizer.DefaultScoring()),
		repository.NewInMemoryRepository(),
		routing.NewStaticResolver(nil),
		notifier.LogNotifier{},
		fingerprint.SHA256{},
		logging.Default(),
	)
	h := handlers.NewWebhookHandler(pipeline, &ratelimit.NoOpRateLimiter{}, nil, "ws-default", 1<<20, logging.Default())
	return NewRouter(h)
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/v1/webhooks/superpixel", http.StatusMethodNotAllowed},
		{http.MethodGet, "/v1/webhooks/audiencesync", http.StatusMethodNotAllowed},
		{http.MethodGet, "/v1/webhooks/batch", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}
