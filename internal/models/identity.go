package models

// Email rank tiers. Higher outranks lower; ties keep first-appearance order.
const (
	RankVerified   = 2
	RankUnverified = 1
	RankGuessed    = 0
)

// RankedEmail is an email address with its verification tier.
type RankedEmail struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
	Rank     int    `json:"rank"`
}

// RankedPhone is a digits-only phone number with its rank.
type RankedPhone struct {
	Number string `json:"number"`
	Rank   int    `json:"rank"`
}

// NormalizedIdentity is the canonical person/company record derived from a
// raw event. Emails and phones are ordered by descending rank; the primary
// email is always Emails[0] when non-empty.
type NormalizedIdentity struct {
	Emails              []RankedEmail `json:"emails"`
	Phones              []RankedPhone `json:"phones"`
	FirstName           string        `json:"first_name"`
	LastName            string        `json:"last_name"`
	CompanyName         string        `json:"company_name"`
	IPAddress           string        `json:"ip_address"`
	EventType           string        `json:"event_type"`
	DeliverabilityScore float64       `json:"deliverability_score"`
	IntentSignals       []string      `json:"intent_signals"`
}

// PrimaryEmail returns the highest-ranked email, or "" when none exist.
func (n NormalizedIdentity) PrimaryEmail() string {
	if len(n.Emails) == 0 {
		return ""
	}
	return n.Emails[0].Address
}

// PrimaryPhone returns the highest-ranked phone, or "" when none exist.
func (n NormalizedIdentity) PrimaryPhone() string {
	if len(n.Phones) == 0 {
		return ""
	}
	return n.Phones[0].Number
}

// HasVerifiedEmail reports whether any email carries an explicit upstream
// verification flag.
func (n NormalizedIdentity) HasVerifiedEmail() bool {
	for _, e := range n.Emails {
		if e.Verified {
			return true
		}
	}
	return false
}
