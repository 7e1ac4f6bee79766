package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencelab/leadpipe/internal/models"
)

func TestClient_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/workspaces/ws-1/recipients", r.URL.Path)

		var req resolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "lead-1", req.Lead.ID)

		json.NewEncoder(w).Encode(resolveResponse{
			Recipients: []Recipient{{UserID: "u-1", Email: "owner@tenant.example"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	recipients, err := client.Resolve(context.Background(), "ws-1", &models.Lead{ID: "lead-1", WorkspaceID: "ws-1"})
	require.NoError(t, err)

	require.Len(t, recipients, 1)
	assert.Equal(t, "u-1", recipients[0].UserID)
}

func TestClient_Resolve_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Resolve(context.Background(), "ws-1", &models.Lead{ID: "lead-1"})
	assert.Error(t, err)
}

func TestClient_Resolve_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.Resolve(context.Background(), "ws-1", &models.Lead{ID: "lead-1"})
	assert.Error(t, err)
}
