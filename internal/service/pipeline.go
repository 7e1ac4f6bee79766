// Package service orchestrates the ingestion pipeline: validate, normalize,
// upsert, route, and record. Each inbound webhook call runs the pipeline
// once, synchronously, to a terminal outcome; no state survives between
// invocations.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/audiencelab/leadpipe/common/logging"
	"github.com/audiencelab/leadpipe/internal/fields"
	"github.com/audiencelab/leadpipe/internal/fingerprint"
	"github.com/audiencelab/leadpipe/internal/metrics"
	"github.com/audiencelab/leadpipe/internal/models"
	"github.com/audiencelab/leadpipe/internal/normalizer"
	"github.com/audiencelab/leadpipe/internal/notifier"
	"github.com/audiencelab/leadpipe/internal/repository"
	"github.com/audiencelab/leadpipe/internal/routing"
	"github.com/audiencelab/leadpipe/internal/validator"
)

// eventIDAliases are upstream keys that may carry the sender's event ID.
var eventIDAliases = []string{"EVENT_ID", "WEBHOOK_ID", "ID"}

// Pipeline wires the ingestion stages together. All collaborators are
// injected at startup; the pipeline holds no hidden process-wide state.
type Pipeline struct {
	validator  *validator.SchemaValidator
	normalizer *normalizer.Normalizer
	repo       repository.Repository
	resolver   routing.Resolver
	notifier   notifier.Notifier
	hasher     fingerprint.Hasher
	logger     *logging.Logger

	maxBatchRows int
}

// Option configures optional pipeline behavior.
type Option func(*Pipeline)

// WithMaxBatchRows bounds how many rows of a bundle are processed.
func WithMaxBatchRows(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBatchRows = n
		}
	}
}

// NewPipeline constructs the pipeline with its collaborators.
func NewPipeline(
	v *validator.SchemaValidator,
	n *normalizer.Normalizer,
	repo repository.Repository,
	resolver routing.Resolver,
	notify notifier.Notifier,
	hasher fingerprint.Hasher,
	logger *logging.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		validator:    v,
		normalizer:   n,
		repo:         repo,
		resolver:     resolver,
		notifier:     notify,
		hasher:       hasher,
		logger:       logger,
		maxBatchRows: 500,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the terminal state of one event's trip through the pipeline.
type Result struct {
	EventID   string
	Outcome   models.Outcome
	Reason    models.RejectionReason
	Duplicate bool
	Lead      *models.Lead
}

// EventID returns the upstream-provided event ID if the payload carries
// one, otherwise a deterministic fingerprint of the raw body. The same
// body always yields the same ID, so ID-less redeliveries stay idempotent.
func (p *Pipeline) EventID(body map[string]any, source models.SourceKind, raw []byte) string {
	if v, ok := fields.Lookup(body, eventIDAliases); ok {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return fingerprint.EventID(p.hasher, string(source), raw)
}

// ProcessEvent runs one raw event through the full pipeline. Validation
// failures return a *validator.ValidationError alongside the error-outcome
// result; transient store failures return an error with no result, leaving
// the event unprocessed for a future redelivery to pick up.
func (p *Pipeline) ProcessEvent(ctx context.Context, eventID, workspaceID string, source models.SourceKind, body map[string]any, raw []byte) (*Result, error) {
	// Idempotency check first: a redelivered event short-circuits to its
	// recorded outcome without re-normalizing or re-notifying.
	entry, err := p.repo.GetLedgerEntry(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		metrics.LedgerReplays.Inc()
		p.logger.InfoContext(ctx, "redelivery short-circuited",
			logging.EventID(eventID),
			logging.Outcome(string(entry.Outcome)),
		)
		return &Result{
			EventID:   eventID,
			Outcome:   entry.Outcome,
			Reason:    models.RejectionReason(entry.Reason),
			Duplicate: true,
		}, nil
	}

	rawEvent := &models.RawEvent{
		ID:          eventID,
		Source:      source,
		WorkspaceID: workspaceID,
		ReceivedAt:  time.Now().UTC(),
		Body:        body,
		Raw:         raw,
	}
	if err := p.repo.InsertRawEvent(ctx, rawEvent); err != nil {
		return nil, err
	}

	start := time.Now()
	payload, err := p.validator.Validate(body, source)
	metrics.PipelineDuration.WithLabelValues("validate").Observe(time.Since(start).Seconds())
	if err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			metrics.ValidationErrors.WithLabelValues(string(source)).Inc()
			p.logger.WarnContext(ctx, "payload failed validation",
				logging.EventID(eventID),
				logging.Source(string(source)),
				logging.Error(err),
			)
			result := p.finish(ctx, eventID, source, models.OutcomeError, "validation: "+ve.Reason, err.Error())
			return result, err
		}
		return nil, err
	}

	start = time.Now()
	identity := p.normalizer.Normalize(payload)
	metrics.PipelineDuration.WithLabelValues("normalize").Observe(time.Since(start).Seconds())

	start = time.Now()
	lead, outcome, reason, err := p.upsert(ctx, identity, workspaceID, source)
	metrics.PipelineDuration.WithLabelValues("upsert").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if outcome == models.OutcomeCreated || outcome == models.OutcomeMerged {
		p.notify(ctx, lead, outcome)
	}

	result := p.finish(ctx, eventID, source, outcome, string(reason), "")
	result.Reason = reason
	result.Lead = lead
	return result, nil
}

// upsert resolves the identity against existing leads. The dedup lookup
// runs before the quality bar: an event matching an existing lead always
// merges, even when the new identity alone would not clear the bar.
func (p *Pipeline) upsert(ctx context.Context, identity models.NormalizedIdentity, workspaceID string, source models.SourceKind) (*models.Lead, models.Outcome, models.RejectionReason, error) {
	email := identity.PrimaryEmail()
	phone := identity.PrimaryPhone()
	now := time.Now().UTC()

	if email != "" || phone != "" {
		existing, err := p.repo.FindLeadByEmailOrPhone(ctx, workspaceID, email, phone)
		if err == nil {
			incoming := models.NewLead("", workspaceID, identity, source, now)
			merged, err := p.repo.MergeLead(ctx, existing.ID, incoming)
			if err != nil {
				return nil, "", "", err
			}
			return merged, models.OutcomeMerged, "", nil
		}
		if !errors.Is(err, repository.ErrLeadNotFound) {
			return nil, "", "", err
		}
	}

	if reason, ok := qualityBar(identity); !ok {
		return nil, models.OutcomeRejected, reason, nil
	}
	if !p.normalizer.IsLeadWorthy(identity) {
		return nil, models.OutcomeRejected, models.ReasonLowScore, nil
	}

	lead := models.NewLead(uuid.New().String(), workspaceID, identity, source, now)
	lead.QualityPassed = true

	err := p.repo.InsertLead(ctx, lead)
	if errors.Is(err, repository.ErrDuplicateLead) {
		// Lost the dedup race to a concurrent writer; retry as a merge once.
		metrics.DedupRaceRetries.Inc()
		existing, err := p.repo.FindLeadByEmailOrPhone(ctx, workspaceID, email, phone)
		if err != nil {
			return nil, "", "", err
		}
		merged, err := p.repo.MergeLead(ctx, existing.ID, lead)
		if err != nil {
			return nil, "", "", err
		}
		return merged, models.OutcomeMerged, "", nil
	}
	if err != nil {
		return nil, "", "", err
	}
	return lead, models.OutcomeCreated, "", nil
}

// qualityBar applies the minimum-quality checks in their fixed order, so
// the reported reason always matches the first failing check.
func qualityBar(identity models.NormalizedIdentity) (models.RejectionReason, bool) {
	if identity.FirstName == "" {
		return models.ReasonMissingFirstName, false
	}
	if identity.LastName == "" {
		return models.ReasonMissingLastName, false
	}
	if identity.CompanyName == "" {
		return models.ReasonMissingCompanyName, false
	}
	if identity.PrimaryEmail() == "" {
		return models.ReasonMissingEmail, false
	}
	return "", true
}

// notify resolves recipients and dispatches the notification. Failures are
// logged and counted; they never roll back the lead write and a consumer
// can retry them independently.
func (p *Pipeline) notify(ctx context.Context, lead *models.Lead, outcome models.Outcome) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.WithLabelValues("notify").Observe(time.Since(start).Seconds())
	}()

	recipients, err := p.resolver.Resolve(ctx, lead.WorkspaceID, lead)
	if err != nil {
		metrics.NotificationFailures.Inc()
		p.logger.ErrorContext(ctx, "recipient resolution failed",
			logging.LeadID(lead.ID),
			logging.WorkspaceID(lead.WorkspaceID),
			logging.Error(err),
		)
		return
	}
	if len(recipients) == 0 {
		return
	}

	if err := p.notifier.NotifyNewLead(ctx, lead, outcome, recipients); err != nil {
		metrics.NotificationFailures.Inc()
		p.logger.ErrorContext(ctx, "notification dispatch failed",
			logging.LeadID(lead.ID),
			logging.WorkspaceID(lead.WorkspaceID),
			logging.Error(err),
		)
	}
}

// finish records the ledger entry and flips the raw event's processed flag.
// Ledger write failures are logged but do not change the outcome: the event
// was handled, and the worst case of a failed ledger write is one redundant
// reprocess on redelivery.
func (p *Pipeline) finish(ctx context.Context, eventID string, source models.SourceKind, outcome models.Outcome, reason, processingError string) *Result {
	entry := &models.LedgerEntry{
		RawEventID:  eventID,
		Outcome:     outcome,
		Reason:      reason,
		ProcessedAt: time.Now().UTC(),
	}
	if err := p.repo.MarkProcessed(ctx, entry); err != nil && !errors.Is(err, repository.ErrAlreadyProcessed) {
		p.logger.ErrorContext(ctx, "ledger write failed",
			logging.EventID(eventID),
			logging.Error(err),
		)
	}
	if err := p.repo.SetRawEventProcessed(ctx, eventID, processingError); err != nil {
		p.logger.ErrorContext(ctx, "raw event update failed",
			logging.EventID(eventID),
			logging.Error(err),
		)
	}

	metrics.EventsTotal.WithLabelValues(string(source), string(outcome)).Inc()
	p.logger.InfoContext(ctx, "event processed",
		logging.EventID(eventID),
		logging.Source(string(source)),
		logging.Outcome(string(outcome)),
	)

	return &Result{EventID: eventID, Outcome: outcome}
}
