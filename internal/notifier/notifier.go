// Package notifier dispatches new-lead notifications to downstream
// consumers. Dispatch is fire-and-forget: a failure is logged and counted
// but never affects the lead write, and consumers can independently retry
// from the bus.
package notifier

import (
	"context"

	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/routing"
)

// Notifier delivers lead notifications to recipients.
type Notifier interface {
	// NotifyNewLead announces a created or merged lead to its recipients.
	NotifyNewLead(ctx context.Context, lead *models.Lead, outcome models.Outcome, recipients []routing.Recipient) error

	// Close releases any resources held by the notifier.
	Close() error
}

// LeadNotification is the message published for each created/merged lead.
type LeadNotification struct {
	Lead       *models.Lead        `json:"lead"`
	Outcome    models.Outcome      `json:"outcome"`
	Recipients []routing.Recipient `json:"recipients"`
}
