// Package normalizer maps heterogeneous upstream payloads into canonical
// identity records, scores contact deliverability, and decides whether an
// identity is worth surfacing to a tenant as a lead.
package normalizer

import (
	"strings"

	"github.com/audiencelab/leadpipe/internal/fields"
	"github.com/audiencelab/leadpipe/internal/models"
)

// ScoringConfig is the tunable policy table behind the deliverability score.
// The exact weights are configuration, not law; defaults live in
// DefaultScoring and can be overridden per deployment.
type ScoringConfig struct {
	VerifiedEmail    float64 `mapstructure:"verified_email"`
	ValidEmailSyntax float64 `mapstructure:"valid_email_syntax"`
	PhonePresent     float64 `mapstructure:"phone_present"`
	FullName         float64 `mapstructure:"full_name"`

	// LeadThreshold is the minimum score for lead creation.
	LeadThreshold float64 `mapstructure:"lead_threshold"`
}

// DefaultScoring returns the default weight table. The verified-email weight
// dominates: a single verified address clears the lead threshold on its own.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		VerifiedEmail:    0.5,
		ValidEmailSyntax: 0.2,
		PhonePresent:     0.2,
		FullName:         0.1,
		LeadThreshold:    0.5,
	}
}

// Normalizer converts typed payloads into NormalizedIdentity records.
type Normalizer struct {
	scoring ScoringConfig
}

// New constructs a Normalizer with the given scoring policy.
func New(scoring ScoringConfig) *Normalizer {
	return &Normalizer{scoring: scoring}
}

// Normalize maps a typed payload into a canonical identity. The returned
// identity has its deliverability score already computed.
func (n *Normalizer) Normalize(payload models.TypedPayload) models.NormalizedIdentity {
	var m map[string]any
	switch p := payload.(type) {
	case models.SuperPixelEvent:
		m = p.Fields
	case models.AudienceSyncRow:
		m = p.MappedFields
	case models.BatchExportRow:
		m = p.Fields
	default:
		m = map[string]any{}
	}

	identity := models.NormalizedIdentity{
		FirstName:   SanitizeName(lookupString(m, fields.FirstNameAliases)),
		LastName:    SanitizeName(lookupString(m, fields.LastNameAliases)),
		CompanyName: SanitizeName(lookupString(m, fields.CompanyAliases)),
		IPAddress:   ExtractIPAddress(m),
		EventType:   ExtractEventType(m),
	}

	identity.Emails = extractEmails(m)
	identity.Phones = extractPhones(m)
	identity.IntentSignals = extractIntentSignals(m)
	identity.DeliverabilityScore = n.Score(identity)
	return identity
}

// Score computes the deliverability confidence in [0,1]: a weighted sum over
// email verification, email syntax, phone presence, and name completeness.
// Pure and deterministic; adding a verified email never lowers the score.
func (n *Normalizer) Score(identity models.NormalizedIdentity) float64 {
	var score float64
	if identity.HasVerifiedEmail() {
		score += n.scoring.VerifiedEmail
	}
	if IsValidEmailSyntax(identity.PrimaryEmail()) {
		score += n.scoring.ValidEmailSyntax
	}
	if identity.PrimaryPhone() != "" {
		score += n.scoring.PhonePresent
	}
	if identity.FirstName != "" && identity.LastName != "" {
		score += n.scoring.FullName
	}
	if score > 1 {
		score = 1
	}
	return score
}

// IsLeadWorthy reports whether the identity clears the minimum bar for
// creating a tenant-visible lead: score at or above the threshold AND at
// least one hard contact point (verified email or phone). Low-confidence
// identities must not pollute tenant lead lists.
func (n *Normalizer) IsLeadWorthy(identity models.NormalizedIdentity) bool {
	if identity.DeliverabilityScore < n.scoring.LeadThreshold {
		return false
	}
	return identity.HasVerifiedEmail() || identity.PrimaryPhone() != ""
}

// extractEmails collects every email in the payload, splits multi-valued
// fields, dedups case-insensitively, and ranks verified > unverified >
// guessed. Within a tier, first-appearance order is preserved.
func extractEmails(m map[string]any) []models.RankedEmail {
	verified := verifiedEmailSet(m)

	seen := make(map[string]bool)
	var tiers [3][]models.RankedEmail // index by rank, highest first

	add := func(raw string, rank int) {
		addr := strings.ToLower(strings.TrimSpace(raw))
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		if verified[addr] {
			rank = models.RankVerified
		}
		tiers[models.RankVerified-rank] = append(tiers[models.RankVerified-rank], models.RankedEmail{
			Address:  addr,
			Verified: rank == models.RankVerified,
			Rank:     rank,
		})
	}

	// Explicitly verified addresses come first so they keep top rank even
	// when they also appear in an unverified field.
	if v, ok := fields.Lookup(m, fields.VerifiedEmailAliases); ok {
		for _, addr := range SplitMulti(v) {
			add(addr, models.RankVerified)
		}
	}
	if v, ok := fields.Lookup(m, fields.EmailAliases); ok {
		for _, addr := range SplitMulti(v) {
			add(addr, models.RankUnverified)
		}
	}
	if v, ok := fields.Lookup(m, fields.GuessedEmailAliases); ok {
		for _, addr := range SplitMulti(v) {
			add(addr, models.RankGuessed)
		}
	}

	var out []models.RankedEmail
	for _, tier := range tiers {
		out = append(out, tier...)
	}
	return out
}

func extractPhones(m map[string]any) []models.RankedPhone {
	v, ok := fields.Lookup(m, fields.PhoneAliases)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var out []models.RankedPhone
	for _, raw := range SplitMulti(v) {
		num := NormalizePhone(raw)
		if num == "" || seen[num] {
			continue
		}
		seen[num] = true
		out = append(out, models.RankedPhone{Number: num, Rank: models.RankUnverified})
	}
	return out
}

func extractIntentSignals(m map[string]any) []string {
	v, ok := fields.Lookup(m, fields.IntentAliases)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, raw := range SplitMulti(v) {
		signal := strings.ToLower(strings.TrimSpace(raw))
		if signal == "" || seen[signal] {
			continue
		}
		seen[signal] = true
		out = append(out, signal)
	}
	return out
}

// IsVerifiedEmail reports whether the payload carries an explicit
// verification flag for that exact email. Absence of a flag means
// unverified, never assumed true.
func IsVerifiedEmail(email string, m map[string]any) bool {
	return verifiedEmailSet(m)[strings.ToLower(strings.TrimSpace(email))]
}

// verifiedEmailSet builds the set of addresses the upstream source
// explicitly validated. Two upstream conventions exist: a list of verified
// addresses, or a boolean/status flag that applies to the primary EMAIL.
func verifiedEmailSet(m map[string]any) map[string]bool {
	set := make(map[string]bool)

	if v, ok := fields.Lookup(m, fields.VerifiedEmailAliases); ok {
		for _, addr := range SplitMulti(v) {
			if a := strings.ToLower(strings.TrimSpace(addr)); a != "" {
				set[a] = true
			}
		}
	}

	if v, ok := fields.Lookup(m, fields.VerifiedFlagAliases); ok && flagIsTrue(v) {
		if primary, ok := fields.Lookup(m, fields.EmailAliases); ok {
			addrs := SplitMulti(primary)
			if len(addrs) > 0 {
				if a := strings.ToLower(strings.TrimSpace(addrs[0])); a != "" {
					set[a] = true
				}
			}
		}
	}
	return set
}

func flagIsTrue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "valid", "verified", "yes", "1":
			return true
		}
	}
	return false
}

func lookupString(m map[string]any, aliases []string) string {
	v, ok := fields.Lookup(m, aliases)
	if !ok {
		return ""
	}
	return toString(v)
}
