package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	m := map[string]any{
		"email":      "a@b.co",
		"First_Name": "Jane",
	}

	v, ok := Lookup(m, EmailAliases)
	require.True(t, ok)
	assert.Equal(t, "a@b.co", v)

	v, ok = Lookup(m, FirstNameAliases)
	require.True(t, ok)
	assert.Equal(t, "Jane", v)

	_, ok = Lookup(m, PhoneAliases)
	assert.False(t, ok)
}

func TestLookup_AliasPriority(t *testing.T) {
	// EMAIL outranks BUSINESS_EMAIL regardless of map iteration order
	m := map[string]any{
		"BUSINESS_EMAIL": "work@b.co",
		"email":          "personal@b.co",
	}

	v, ok := Lookup(m, EmailAliases)
	require.True(t, ok)
	assert.Equal(t, "personal@b.co", v)
}

func TestHasResolutionField(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
		want bool
	}{
		{"email present", map[string]any{"EMAIL": "a@b.co"}, true},
		{"phone present", map[string]any{"phone": "5551234567"}, true},
		{"company only", map[string]any{"COMPANY_NAME": "Acme"}, true},
		{"guessed email only", map[string]any{"GUESSED_EMAILS": "a@b.co"}, true},
		{"no identity fields", map[string]any{"EVENT_TYPE": "page_view", "IP_ADDRESS": "203.0.113.7"}, false},
		{"empty", map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasResolutionField(tt.m))
		})
	}
}
