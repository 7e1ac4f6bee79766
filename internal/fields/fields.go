// Package fields defines the canonical identity field vocabulary and the
// upstream aliases each canonical field may arrive under.
//
// Upstream payloads are duck-typed JSON with inconsistent casing: superpixel
// events use UPPER_SNAKE_CASE, audiencesync mapped fields use lower snake
// case, and batch rows have been observed with both. All lookups are
// case-insensitive so one alias table covers every source.
package fields

import "strings"

// Aliases for each canonical identity field, in lookup priority order.
var (
	EmailAliases        = []string{"EMAIL", "BUSINESS_EMAIL", "PERSONAL_EMAILS", "EMAILS"}
	GuessedEmailAliases = []string{"GUESSED_EMAILS"}

	// VerifiedEmailAliases list emails the upstream source explicitly
	// validated. VerifiedFlagAliases are boolean flags that apply to the
	// payload's primary EMAIL value.
	VerifiedEmailAliases = []string{"VERIFIED_EMAILS", "VALIDATED_EMAILS"}
	VerifiedFlagAliases  = []string{"VERIFIED_EMAIL", "EMAIL_VERIFIED", "EMAIL_VALIDATION_STATUS"}

	PhoneAliases     = []string{"PHONE", "MOBILE_PHONE", "DIRECT_NUMBER", "PHONE_NUMBERS", "PHONES"}
	FirstNameAliases = []string{"FIRST_NAME", "FIRSTNAME", "GIVEN_NAME"}
	LastNameAliases  = []string{"LAST_NAME", "LASTNAME", "SURNAME", "FAMILY_NAME"}
	CompanyAliases   = []string{"COMPANY_NAME", "COMPANY", "ORGANIZATION", "EMPLOYER"}
	IPAliases        = []string{"IP_ADDRESS", "IP", "CLIENT_IP"}
	EventTypeAliases = []string{"EVENT_TYPE", "ACTIVITY_TYPE", "ACTION"}
	IntentAliases    = []string{"INTENT_TOPICS", "IN_MARKET_TOPICS", "KEYWORDS"}
)

// resolutionAliases is every alias that identifies a person or company. A
// payload carrying none of these cannot resolve to an identity.
var resolutionAliases = flatten(
	EmailAliases, GuessedEmailAliases, VerifiedEmailAliases,
	PhoneAliases, FirstNameAliases, LastNameAliases, CompanyAliases,
)

// Lookup returns the value of the first alias present in fields,
// case-insensitively. Alias priority order wins over map iteration order.
func Lookup(m map[string]any, aliases []string) (any, bool) {
	for _, alias := range aliases {
		for k, v := range m {
			if strings.EqualFold(k, alias) {
				return v, true
			}
		}
	}
	return nil, false
}

// HasResolutionField reports whether the payload carries at least one known
// identity field.
func HasResolutionField(m map[string]any) bool {
	_, ok := Lookup(m, resolutionAliases)
	return ok
}

func flatten(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
