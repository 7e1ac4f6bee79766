package normalizer

import (
	"net"
	"strings"

	"github.com/audiencelab/leadpipe/internal/fields"
)

// ExtractEventType resolves the event type with an explicit fallback chain
// over upstream aliases; unknown payloads report "unknown", never an error.
func ExtractEventType(m map[string]any) string {
	v, ok := fields.Lookup(m, fields.EventTypeAliases)
	if !ok {
		return "unknown"
	}
	t := strings.ToLower(strings.TrimSpace(toString(v)))
	if t == "" {
		return "unknown"
	}
	return t
}

// ExtractIPAddress resolves the visitor IP with a fallback chain over
// upstream aliases. Unparseable or missing values yield "".
func ExtractIPAddress(m map[string]any) string {
	v, ok := fields.Lookup(m, fields.IPAliases)
	if !ok {
		return ""
	}
	raw := strings.TrimSpace(toString(v))
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return ""
}
