// Package phone canonicalizes phone numbers to E.164.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers entered without a country code.
const DefaultRegion = "US"

// Normalize returns the E.164 form of raw. When the input cannot be parsed as a
// plausible number the trimmed input is returned unchanged, so a bad number is
// stored as typed rather than lost. Normalizing an E.164 value is a no-op.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	num, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return trimmed
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// Display formats a stored number for humans. North American numbers use the
// national format, everything else the international one.
func Display(stored string) string {
	if stored == "" {
		return ""
	}
	num, err := phonenumbers.Parse(stored, DefaultRegion)
	if err != nil {
		return stored
	}
	if num.GetCountryCode() == 1 {
		return phonenumbers.Format(num, phonenumbers.NATIONAL)
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
