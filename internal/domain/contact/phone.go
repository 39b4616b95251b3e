package contact

import "strings"

// Russian numbering plan constants used by phone normalization.
const (
	trunkPrefix = "8"
	countryCode = "7"
)

// NormalizePhone brings a free-form phone number to +7XXXXXXXXXX form.
// Everything except digits and a leading plus is stripped; the domestic
// trunk prefix 8 is replaced with +7; bare 10-digit numbers get +7
// prepended; 11-digit numbers already starting with 7 get a plus. A result
// shorter than 11 digits is treated as invalid and the empty string is
// returned.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if strings.HasPrefix(phone, trunkPrefix) && len(phone) == 11 {
		phone = "+" + countryCode + phone[1:]
	}

	if phone != "" && !strings.HasPrefix(phone, "+") {
		switch {
		case len(phone) == 10:
			phone = "+" + countryCode + phone
		case len(phone) == 11 && strings.HasPrefix(phone, countryCode):
			phone = "+" + phone
		}
	}

	if len(phone) < 11 {
		return ""
	}
	return phone
}
