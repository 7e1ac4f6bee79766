// Package routing resolves which users inside a workspace should receive a
// lead. Targeting rules are external configuration: either a rules file
// loaded at startup or a remote routing service.
package routing

import (
	"context"

	"github.com/audiencelab/leadpipe/internal/models"
)

// Recipient is a user who should be notified about a lead.
type Recipient struct {
	UserID string `json:"user_id" yaml:"user_id"`
	Email  string `json:"email" yaml:"email"`
}

// Resolver maps a lead to its recipients. Implementations must be safe for
// concurrent use; the pipeline calls Resolve on every created or merged
// lead.
type Resolver interface {
	Resolve(ctx context.Context, workspaceID string, lead *models.Lead) ([]Recipient, error)
}
