package lead

import "strings"

// NormalizePhone canonicalizes a submitted phone number: formatting characters
// are stripped, one leading trunk "0" is dropped, and numbers without an
// international prefix get "+" plus the default country code (unless the
// digits already begin with that code, in which case only "+" is added).
// Empty input stays empty.
func NormalizePhone(raw, defaultCountryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case ' ', '\t', '(', ')', '-':
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "0")

	if strings.HasPrefix(s, "+") {
		return s
	}
	if strings.HasPrefix(s, defaultCountryCode) {
		return "+" + s
	}
	return "+" + defaultCountryCode + s
}
