package models

import "time"

// Lead is the tenant-scoped actionable record created from a lead-worthy
// identity. Email holds the primary email lowercased and Phone the primary
// phone digits-only; both double as dedup keys within the workspace.
//
// Merges are non-destructive: only empty fields are filled from newer
// identities (first write wins per field) and intent signals accumulate.
type Lead struct {
	ID                  string     `json:"id"`
	WorkspaceID         string     `json:"workspace_id"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Emails              []string   `json:"emails"`
	Phones              []string   `json:"phones"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	CompanyName         string     `json:"company_name"`
	IPAddress           string     `json:"ip_address"`
	EventType           string     `json:"event_type"`
	Source              SourceKind `json:"source"`
	DeliverabilityScore float64    `json:"deliverability_score"`
	IntentSignals       []string   `json:"intent_signals"`
	QualityPassed       bool       `json:"quality_passed"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewLead copies identity fields into a Lead owned by the workspace.
func NewLead(id, workspaceID string, identity NormalizedIdentity, source SourceKind, now time.Time) *Lead {
	lead := &Lead{
		ID:                  id,
		WorkspaceID:         workspaceID,
		Email:               identity.PrimaryEmail(),
		Phone:               identity.PrimaryPhone(),
		FirstName:           identity.FirstName,
		LastName:            identity.LastName,
		CompanyName:         identity.CompanyName,
		IPAddress:           identity.IPAddress,
		EventType:           identity.EventType,
		Source:              source,
		DeliverabilityScore: identity.DeliverabilityScore,
		IntentSignals:       append([]string(nil), identity.IntentSignals...),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, e := range identity.Emails {
		lead.Emails = append(lead.Emails, e.Address)
	}
	for _, p := range identity.Phones {
		lead.Phones = append(lead.Phones, p.Number)
	}
	return lead
}
