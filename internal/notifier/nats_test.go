package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencelab/leadpipe/common/messaging"
	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/routing"
)

// fakePublisher records published messages.
type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakePublisher) PublishMsg(ctx context.Context, msg *messaging.Message) error {
	return f.Publish(ctx, msg.Subject, msg.Data)
}

func (f *fakePublisher) Close() error { return nil }

func TestBusNotifier_PublishesCreated(t *testing.T) {
	pub := &fakePublisher{}
	n := NewBusNotifier(pub)

	lead := &models.Lead{ID: "lead-1", WorkspaceID: "ws-1", Email: "a@b.co"}
	recipients := []routing.Recipient{{UserID: "u-1"}}

	err := n.NotifyNewLead(context.Background(), lead, models.OutcomeCreated, recipients)
	require.NoError(t, err)

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "leads.created.ws-1", pub.subjects[0])

	var notification LeadNotification
	require.NoError(t, json.Unmarshal(pub.payloads[0], &notification))
	assert.Equal(t, "lead-1", notification.Lead.ID)
	assert.Equal(t, models.OutcomeCreated, notification.Outcome)
	assert.Equal(t, "u-1", notification.Recipients[0].UserID)
}

func TestBusNotifier_PublishesMergedSubject(t *testing.T) {
	pub := &fakePublisher{}
	n := NewBusNotifier(pub)

	lead := &models.Lead{ID: "lead-1", WorkspaceID: "ws-1"}
	err := n.NotifyNewLead(context.Background(), lead, models.OutcomeMerged, nil)
	require.NoError(t, err)

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "leads.merged.ws-1", pub.subjects[0])
}

func TestBusNotifier_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := NewBusNotifier(pub)

	err := n.NotifyNewLead(context.Background(), &models.Lead{WorkspaceID: "ws-1"}, models.OutcomeCreated, nil)
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	n := LogNotifier{}
	err := n.NotifyNewLead(context.Background(), &models.Lead{ID: "lead-1", WorkspaceID: "ws-1"},
		models.OutcomeCreated, []routing.Recipient{{UserID: "u-1"}})
	assert.NoError(t, err)
	assert.NoError(t, n.Close())
}
