package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone converts phone to E.164. Numbers without a country code are
// read in defaultRegion. Unparseable or impossible numbers yield "".
func NormalizePhone(phone, defaultRegion string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	parsedNumber, err := phonenumbers.Parse(phone, strings.ToUpper(defaultRegion))
	if err != nil || !phonenumbers.IsPossibleNumber(parsedNumber) {
		return ""
	}
	return phonenumbers.Format(parsedNumber, phonenumbers.E164)
}
