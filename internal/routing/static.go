package routing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/audiencelab/leadpipe/internal/models"
)

// rulesFile is the on-disk shape of the routing rules document.
type rulesFile struct {
	Workspaces        map[string]workspaceRules `yaml:"workspaces"`
	DefaultRecipients []Recipient               `yaml:"default_recipients"`
}

type workspaceRules struct {
	Recipients []Recipient `yaml:"recipients"`
	Match      *matchRules `yaml:"match"`
}

// matchRules filter which leads a workspace's recipients care about. An
// empty filter matches everything.
type matchRules struct {
	Sources  []string `yaml:"sources"`
	MinScore float64  `yaml:"min_score"`
}

// StaticResolver resolves recipients from a YAML rules file loaded once at
// startup. Reload by restarting; rules change rarely and through deploys.
type StaticResolver struct {
	rules rulesFile
}

// LoadStaticResolver reads and parses the rules file at path.
func LoadStaticResolver(path string) (*StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing rules: %w", err)
	}

	var rules rulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse routing rules: %w", err)
	}
	return &StaticResolver{rules: rules}, nil
}

// NewStaticResolver builds a resolver from already-parsed recipients,
// used by tests and as the default-recipient fallback.
func NewStaticResolver(defaults []Recipient) *StaticResolver {
	return &StaticResolver{rules: rulesFile{DefaultRecipients: defaults}}
}

// Resolve returns the workspace's recipients when the lead passes the
// workspace match filter, falling back to the default recipients.
func (r *StaticResolver) Resolve(ctx context.Context, workspaceID string, lead *models.Lead) ([]Recipient, error) {
	ws, ok := r.rules.Workspaces[workspaceID]
	if !ok {
		return r.rules.DefaultRecipients, nil
	}
	if !matches(ws.Match, lead) {
		return nil, nil
	}
	if len(ws.Recipients) == 0 {
		return r.rules.DefaultRecipients, nil
	}
	return ws.Recipients, nil
}

func matches(m *matchRules, lead *models.Lead) bool {
	if m == nil {
		return true
	}
	if len(m.Sources) > 0 {
		found := false
		for _, s := range m.Sources {
			if strings.EqualFold(s, string(lead.Source)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return lead.DeliverabilityScore >= m.MinScore
}
