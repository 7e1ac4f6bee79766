package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/audiencelab/leadpipe/internal/models"
)

// Client resolves recipients from the remote routing-rules service. The
// service owns the targeting rules; this client only asks.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a routing service client with the given request
// timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type resolveRequest struct {
	Lead *models.Lead `json:"lead"`
}

type resolveResponse struct {
	Recipients []Recipient `json:"recipients"`
}

// Resolve POSTs the lead to the routing service and returns the recipients
// it selects. A non-200 response is an error; the caller treats routing
// failures as retryable and never rolls back the lead write.
func (c *Client) Resolve(ctx context.Context, workspaceID string, lead *models.Lead) ([]Recipient, error) {
	body, err := json.Marshal(resolveRequest{Lead: lead})
	if err != nil {
		return nil, fmt.Errorf("marshal resolve request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/workspaces/%s/recipients", c.baseURL, workspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build resolve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing service returned status %d", resp.StatusCode)
	}

	var decoded resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode resolve response: %w", err)
	}
	return decoded.Recipients, nil
}
