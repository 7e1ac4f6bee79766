package models

import "time"

// RawEvent is the persisted, immutable upstream payload plus receipt
// metadata. Only the processed flag and processing error may change after
// insert; rows are never deleted (audit trail).
type RawEvent struct {
	ID              string         `json:"id"`
	Source          SourceKind     `json:"source"`
	WorkspaceID     string         `json:"workspace_id"`
	ReceivedAt      time.Time      `json:"received_at"`
	Processed       bool           `json:"processed"`
	ProcessingError string         `json:"processing_error,omitempty"`
	Body            map[string]any `json:"body"`
	Raw             []byte         `json:"-"`
}

// Outcome is the terminal state of one event's trip through the pipeline.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeMerged   Outcome = "merged"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

// RejectionReason explains a rejected outcome. The quality-bar reasons are
// reported in a fixed check order (first name, last name, company, email) so
// the reason for a given identity is deterministic.
type RejectionReason string

const (
	ReasonLowScore           RejectionReason = "low_score"
	ReasonMissingFirstName   RejectionReason = "missing_first_name"
	ReasonMissingLastName    RejectionReason = "missing_last_name"
	ReasonMissingCompanyName RejectionReason = "missing_company_name"
	ReasonMissingEmail       RejectionReason = "missing_email"
)

// LedgerEntry records that a raw event has been processed. At most one entry
// exists per raw event ID; the ID is the idempotency key for webhook
// redeliveries.
type LedgerEntry struct {
	RawEventID  string    `json:"raw_event_id"`
	Outcome     Outcome   `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// WebhookResponse is returned for single-event webhook deliveries. Duplicate
// is true when the ledger short-circuited a redelivery.
type WebhookResponse struct {
	EventID   string  `json:"event_id"`
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
	Duplicate bool    `json:"duplicate,omitempty"`
}

// RowError is a row-level failure inside a batch bundle.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BatchSummary reports the partial-success result of a batch bundle.
type BatchSummary struct {
	Total     int        `json:"total"`
	Created   int        `json:"created"`
	Merged    int        `json:"merged"`
	Rejected  int        `json:"rejected"`
	Errors    int        `json:"errors"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}
