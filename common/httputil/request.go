package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GetClientIP returns the best-effort client address, preferring proxy
// forwarding headers over the raw remote address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// ReadJSONBody reads at most maxSize bytes from the request body and decodes
// it into a generic JSON object. Returns the raw bytes alongside the decoded
// map so callers can fingerprint or archive the exact payload received.
func ReadJSONBody(r *http.Request, maxSize int64) ([]byte, map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	defer r.Body.Close()

	if int64(len(body)) > maxSize {
		return nil, nil, fmt.Errorf("body exceeds %d bytes", maxSize)
	}
	if len(body) == 0 {
		return nil, nil, fmt.Errorf("empty body")
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return body, nil, fmt.Errorf("decode body: %w", err)
	}
	return body, decoded, nil
}

// BearerToken extracts a token from an Authorization header. Both "Bearer"
// and "Token" schemes are accepted.
func BearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	scheme := strings.ToLower(parts[0])
	if scheme == "bearer" || scheme == "token" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
