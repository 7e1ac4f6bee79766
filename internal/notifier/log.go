package notifier

import (
	"context"
	"log/slog"

	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/routing"
)

// LogNotifier writes notifications to the log. Used in development and when
// the message bus is disabled.
type LogNotifier struct{}

func (LogNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead, outcome models.Outcome, recipients []routing.Recipient) error {
	slog.InfoContext(ctx, "lead notification",
		slog.String("lead_id", lead.ID),
		slog.String("workspace_id", lead.WorkspaceID),
		slog.String("outcome", string(outcome)),
		slog.Int("recipients", len(recipients)),
	)
	return nil
}

func (LogNotifier) Close() error {
	return nil
}
