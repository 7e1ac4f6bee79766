package routing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencelab/leadpipe/internal/models"
)

const testRules = `
workspaces:
  ws-1:
    recipients:
      - user_id: u-1
        email: owner@tenant.example
  ws-2:
    recipients:
      - user_id: u-2
        email: sales@tenant.example
    match:
      sources: [superpixel]
      min_score: 0.7
default_recipients:
  - user_id: u-default
    email: fallback@tenant.example
`

func loadTestResolver(t *testing.T) *StaticResolver {
	t.Helper()

	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRules), 0o600))

	resolver, err := LoadStaticResolver(path)
	require.NoError(t, err)
	return resolver
}

func TestStaticResolver_WorkspaceRecipients(t *testing.T) {
	resolver := loadTestResolver(t)

	lead := &models.Lead{WorkspaceID: "ws-1", Source: models.SourceSuperPixel}
	recipients, err := resolver.Resolve(context.Background(), "ws-1", lead)
	require.NoError(t, err)

	require.Len(t, recipients, 1)
	assert.Equal(t, "u-1", recipients[0].UserID)
}

func TestStaticResolver_UnknownWorkspaceGetsDefaults(t *testing.T) {
	resolver := loadTestResolver(t)

	lead := &models.Lead{WorkspaceID: "ws-unknown"}
	recipients, err := resolver.Resolve(context.Background(), "ws-unknown", lead)
	require.NoError(t, err)

	require.Len(t, recipients, 1)
	assert.Equal(t, "u-default", recipients[0].UserID)
}

func TestStaticResolver_MatchFilter(t *testing.T) {
	resolver := loadTestResolver(t)

	tests := []struct {
		name string
		lead *models.Lead
		want int
	}{
		{
			name: "passes filter",
			lead: &models.Lead{Source: models.SourceSuperPixel, DeliverabilityScore: 0.8},
			want: 1,
		},
		{
			name: "wrong source",
			lead: &models.Lead{Source: models.SourceAudienceSync, DeliverabilityScore: 0.8},
			want: 0,
		},
		{
			name: "score below minimum",
			lead: &models.Lead{Source: models.SourceSuperPixel, DeliverabilityScore: 0.5},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipients, err := resolver.Resolve(context.Background(), "ws-2", tt.lead)
			require.NoError(t, err)
			assert.Len(t, recipients, tt.want)
		})
	}
}

func TestStaticResolver_Defaults(t *testing.T) {
	resolver := NewStaticResolver([]Recipient{{UserID: "u-1"}})

	recipients, err := resolver.Resolve(context.Background(), "anything", &models.Lead{})
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "u-1", recipients[0].UserID)
}

func TestLoadStaticResolver_MissingFile(t *testing.T) {
	_, err := LoadStaticResolver("/nonexistent/routing.yaml")
	assert.Error(t, err)
}

func TestLoadStaticResolver_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workspaces: [broken"), 0o600))

	_, err := LoadStaticResolver(path)
	assert.Error(t, err)
}
