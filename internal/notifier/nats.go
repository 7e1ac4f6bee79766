package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/audiencelab/leadpipe/common/messaging"
	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/routing"
)

// BusNotifier publishes lead notifications on the message bus. Notification
// workers consume them in the shared queue group so each lead is handled
// once.
type BusNotifier struct {
	publisher messaging.Publisher
}

// NewBusNotifier wraps a bus publisher (NATS in production).
func NewBusNotifier(publisher messaging.Publisher) *BusNotifier {
	return &BusNotifier{publisher: publisher}
}

func (n *BusNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead, outcome models.Outcome, recipients []routing.Recipient) error {
	data, err := json.Marshal(LeadNotification{
		Lead:       lead,
		Outcome:    outcome,
		Recipients: recipients,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := messaging.LeadCreatedSubject(lead.WorkspaceID)
	if outcome == models.OutcomeMerged {
		subject = messaging.LeadMergedSubject(lead.WorkspaceID)
	}

	if err := n.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *BusNotifier) Close() error {
	return n.publisher.Close()
}
