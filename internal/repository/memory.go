package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/audiencelab/leadpipe/internal/models"
)

// InMemoryRepository is a map-backed Repository for development and tests.
type InMemoryRepository struct {
	mu         sync.RWMutex
	events     map[string]*models.RawEvent
	leads      map[string]*models.Lead
	leadsByKey map[string]string // workspace+key -> lead ID
	ledger     map[string]*models.LedgerEntry
}

// NewInMemoryRepository constructs an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		events:     make(map[string]*models.RawEvent),
		leads:      make(map[string]*models.Lead),
		leadsByKey: make(map[string]string),
		ledger:     make(map[string]*models.LedgerEntry),
	}
}

func (r *InMemoryRepository) InsertRawEvent(ctx context.Context, event *models.RawEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return nil
	}
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *InMemoryRepository) GetRawEvent(ctx context.Context, id string) (*models.RawEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *InMemoryRepository) SetRawEventProcessed(ctx context.Context, id string, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, exists := r.events[id]
	if !exists {
		return ErrEventNotFound
	}
	event.Processed = true
	event.ProcessingError = processingError
	return nil
}

func (r *InMemoryRepository) FindLeadByEmailOrPhone(ctx context.Context, workspaceID, email, phone string) (*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if email != "" {
		if id, ok := r.leadsByKey[emailKey(workspaceID, email)]; ok {
			copied := *r.leads[id]
			return &copied, nil
		}
	}
	if phone != "" {
		if id, ok := r.leadsByKey[phoneKey(workspaceID, phone)]; ok {
			copied := *r.leads[id]
			return &copied, nil
		}
	}
	return nil, ErrLeadNotFound
}

func (r *InMemoryRepository) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, exists := r.leads[id]
	if !exists {
		return nil, ErrLeadNotFound
	}
	copied := *lead
	return &copied, nil
}

func (r *InMemoryRepository) InsertLead(ctx context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lead.Email != "" {
		if _, taken := r.leadsByKey[emailKey(lead.WorkspaceID, lead.Email)]; taken {
			return ErrDuplicateLead
		}
	}
	if lead.Phone != "" {
		if _, taken := r.leadsByKey[phoneKey(lead.WorkspaceID, lead.Phone)]; taken {
			return ErrDuplicateLead
		}
	}

	stored := *lead
	r.leads[lead.ID] = &stored
	if lead.Email != "" {
		r.leadsByKey[emailKey(lead.WorkspaceID, lead.Email)] = lead.ID
	}
	if lead.Phone != "" {
		r.leadsByKey[phoneKey(lead.WorkspaceID, lead.Phone)] = lead.ID
	}
	return nil
}

func (r *InMemoryRepository) MergeLead(ctx context.Context, existingID string, incoming *models.Lead) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.leads[existingID]
	if !ok {
		return nil, ErrLeadNotFound
	}

	merged := MergeFields(existing, incoming)
	merged.UpdatedAt = time.Now().UTC()
	r.leads[existingID] = merged

	if merged.Email != "" {
		r.leadsByKey[emailKey(merged.WorkspaceID, merged.Email)] = existingID
	}
	if merged.Phone != "" {
		r.leadsByKey[phoneKey(merged.WorkspaceID, merged.Phone)] = existingID
	}

	copied := *merged
	return &copied, nil
}

func (r *InMemoryRepository) MarkProcessed(ctx context.Context, entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ledger[entry.RawEventID]; exists {
		return ErrAlreadyProcessed
	}
	stored := *entry
	r.ledger[entry.RawEventID] = &stored
	return nil
}

func (r *InMemoryRepository) GetLedgerEntry(ctx context.Context, rawEventID string) (*models.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.ledger[rawEventID]
	if !exists {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (r *InMemoryRepository) DeleteLedgerEntry(ctx context.Context, rawEventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ledger, rawEventID)
	return nil
}

func (r *InMemoryRepository) Close() {}

func emailKey(workspaceID, email string) string {
	return workspaceID + "/email/" + strings.ToLower(email)
}

func phoneKey(workspaceID, phone string) string {
	return workspaceID + "/phone/" + phone
}

// MergeFields applies the first-write-wins merge policy: empty fields on the
// existing lead are filled from the incoming one, populated fields are left
// alone, and intent signals, emails, and phones accumulate without
// duplicates. Shared by both repository implementations.
func MergeFields(existing, incoming *models.Lead) *models.Lead {
	merged := *existing

	if merged.Email == "" {
		merged.Email = incoming.Email
	}
	if merged.Phone == "" {
		merged.Phone = incoming.Phone
	}
	if merged.FirstName == "" {
		merged.FirstName = incoming.FirstName
	}
	if merged.LastName == "" {
		merged.LastName = incoming.LastName
	}
	if merged.CompanyName == "" {
		merged.CompanyName = incoming.CompanyName
	}
	if merged.IPAddress == "" {
		merged.IPAddress = incoming.IPAddress
	}
	if merged.EventType == "" || merged.EventType == "unknown" {
		merged.EventType = incoming.EventType
	}
	if incoming.DeliverabilityScore > merged.DeliverabilityScore {
		merged.DeliverabilityScore = incoming.DeliverabilityScore
	}

	merged.Emails = unionStrings(existing.Emails, incoming.Emails)
	merged.Phones = unionStrings(existing.Phones, incoming.Phones)
	merged.IntentSignals = unionStrings(existing.IntentSignals, incoming.IntentSignals)
	return &merged
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
