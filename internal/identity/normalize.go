// Package identity canonicalizes raw email/phone input into stable matching
// keys. Normalization is best-effort: malformed values pass through unchanged
// and simply fail to match downstream, which callers treat as not found.
package identity

import "strings"

// Country codes the portal's markets actually use. Phone normalization is
// deliberately limited to these; it is not general E.164 parsing.
var (
	twoDigitCountryCodes = []string{"45", "46"}
	threeDigitCodes      = []string{"353"}
)

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizePhone strips punctuation and coerces the number into the
// plus-prefixed canonical form: "00" prefixes collapse to "+", a redundant
// trunk zero after a recognized country code is dropped, and a bare known
// country code gets a "+" prepended. Anything else is returned as-is.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	for _, ch := range []string{" ", "-", "(", ")"} {
		s = strings.ReplaceAll(s, ch, "")
	}
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	if strings.HasPrefix(s, "+") {
		for _, cc := range twoDigitCountryCodes {
			if strings.HasPrefix(s, "+"+cc+"0") {
				s = "+" + cc + s[len(cc)+2:]
				return s
			}
		}
		for _, cc := range threeDigitCodes {
			if strings.HasPrefix(s, "+"+cc+"0") {
				s = "+" + cc + s[len(cc)+2:]
				return s
			}
		}
		return s
	}
	for _, cc := range append(append([]string{}, twoDigitCountryCodes...), threeDigitCodes...) {
		if strings.HasPrefix(s, cc) {
			return "+" + s
		}
	}
	return s
}

// MatchVariants returns the lookup-equality set for a normalized phone:
// the canonical form, the bare form without "+", and the "00"-prefixed form.
// Used only for building query predicates, never for storage.
func MatchVariants(normalized string) []string {
	if normalized == "" {
		return nil
	}
	out := []string{normalized}
	if strings.HasPrefix(normalized, "+") {
		bare := normalized[1:]
		out = append(out, bare, "00"+bare)
	}
	return out
}
