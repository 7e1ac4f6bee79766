package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEventType(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
		want string
	}{
		{"canonical key", map[string]any{"EVENT_TYPE": "Page_View"}, "page_view"},
		{"activity alias", map[string]any{"activity_type": "form_submit"}, "form_submit"},
		{"action alias", map[string]any{"ACTION": "click"}, "click"},
		{"missing", map[string]any{}, "unknown"},
		{"empty value", map[string]any{"EVENT_TYPE": "  "}, "unknown"},
		{"non-string value", map[string]any{"EVENT_TYPE": map[string]any{}}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEventType(tt.m))
		})
	}
}

func TestExtractIPAddress(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
		want string
	}{
		{"ipv4", map[string]any{"IP_ADDRESS": "203.0.113.7"}, "203.0.113.7"},
		{"ipv6", map[string]any{"ip": "2001:db8::1"}, "2001:db8::1"},
		{"client ip alias", map[string]any{"CLIENT_IP": "198.51.100.4"}, "198.51.100.4"},
		{"garbage", map[string]any{"IP_ADDRESS": "not-an-ip"}, ""},
		{"missing", map[string]any{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIPAddress(tt.m))
		})
	}
}
