// Package repository persists raw events, leads, and the processing ledger.
// Two implementations exist: Postgres for production and an in-memory store
// for development and tests.
package repository

import (
	"context"
	"errors"

	"github.com/audiencelab/leadpipe/internal/models"
)

var (
	// ErrLeadNotFound means no lead matches the dedup key in the workspace.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrDuplicateLead means an insert lost a dedup race: another writer
	// created a lead with the same key first. Callers retry as a merge.
	ErrDuplicateLead = errors.New("lead already exists")

	// ErrEventNotFound means no raw event exists with the given ID.
	ErrEventNotFound = errors.New("raw event not found")

	// ErrAlreadyProcessed means a ledger entry already exists for the event.
	ErrAlreadyProcessed = errors.New("event already processed")
)

// Repository is the persistence collaborator for the ingestion pipeline.
// Implementations must provide at-least per-row transactional semantics;
// the pipeline relies on unique constraints for dedup atomicity and holds
// no locks of its own.
type Repository interface {
	// InsertRawEvent stores an inbound payload for audit. Re-inserting the
	// same event ID is a no-op so webhook redeliveries stay safe.
	InsertRawEvent(ctx context.Context, event *models.RawEvent) error

	// GetRawEvent fetches a stored raw event by ID.
	GetRawEvent(ctx context.Context, id string) (*models.RawEvent, error)

	// SetRawEventProcessed flips the processed flag and records any
	// terminal processing error.
	SetRawEventProcessed(ctx context.Context, id string, processingError string) error

	// FindLeadByEmailOrPhone looks up an existing lead by dedup key within
	// the workspace. Empty keys are skipped. Returns ErrLeadNotFound when
	// nothing matches.
	FindLeadByEmailOrPhone(ctx context.Context, workspaceID, email, phone string) (*models.Lead, error)

	// GetLead fetches a lead by ID.
	GetLead(ctx context.Context, id string) (*models.Lead, error)

	// InsertLead creates a new lead. Returns ErrDuplicateLead if the
	// workspace-scoped dedup constraint fires.
	InsertLead(ctx context.Context, lead *models.Lead) error

	// MergeLead applies a non-destructive merge: only empty fields on the
	// stored lead are filled from the given lead, and intent signals are
	// unioned. Populated fields are never overwritten.
	MergeLead(ctx context.Context, existingID string, incoming *models.Lead) (*models.Lead, error)

	// MarkProcessed writes the ledger entry for a raw event. At most one
	// entry may exist per event ID; a second write returns
	// ErrAlreadyProcessed and leaves the original untouched.
	MarkProcessed(ctx context.Context, entry *models.LedgerEntry) error

	// GetLedgerEntry returns the recorded outcome for an event ID, or
	// nil with no error when the event has not been processed yet.
	GetLedgerEntry(ctx context.Context, rawEventID string) (*models.LedgerEntry, error)

	// DeleteLedgerEntry removes an entry so an admin can force a retry.
	DeleteLedgerEntry(ctx context.Context, rawEventID string) error

	// Close releases the underlying connections.
	Close()
}

// IsAlreadyProcessed reports whether the event has a ledger entry. Shared
// convenience over GetLedgerEntry.
func IsAlreadyProcessed(ctx context.Context, r Repository, rawEventID string) (bool, error) {
	entry, err := r.GetLedgerEntry(ctx, rawEventID)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}
