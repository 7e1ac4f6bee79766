package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// emailRe accepts local-part@domain.tld with a TLD of at least two letters.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s.]+(\.[^@\s.]+)*\.[A-Za-z]{2,}$`)

// nonDigitRe strips everything but digits when normalizing phone numbers.
var nonDigitRe = regexp.MustCompile(`\D`)

// IsValidEmailSyntax reports whether the address is syntactically plausible.
// This is a deliverability signal, not an RFC 5322 parser.
func IsValidEmailSyntax(email string) bool {
	return email != "" && emailRe.MatchString(email)
}

// NormalizePhone reduces a phone number to its digits. Returns "" for
// values with fewer than 7 digits, which cannot be real numbers.
func NormalizePhone(raw string) string {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if len(digits) < 7 {
		return ""
	}
	return digits
}

// SanitizeName strips control characters, collapses whitespace, and
// title-cases the result. Absent or garbage input yields "", never a
// placeholder.
func SanitizeName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// SplitMulti normalizes a multi-valued field into individual trimmed
// strings. Upstream sends these as delimited strings or JSON arrays.
func SplitMulti(v any) []string {
	var parts []string
	switch val := v.(type) {
	case string:
		parts = splitDelimited(val)
	case []string:
		for _, s := range val {
			parts = append(parts, splitDelimited(s)...)
		}
	case []any:
		for _, item := range val {
			parts = append(parts, splitDelimited(toString(item))...)
		}
	default:
		parts = splitDelimited(toString(v))
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitDelimited(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return ""
	}
}
