package util

import (
	"regexp"
	"strings"
)

var nonPhone = regexp.MustCompile(`[^\d\+]+`)

// NormalizePhone tries to normalize user input into E.164-like format.
// Bare local numbers default to the Ivorian country code (+225).
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "whatsapp:")
	s = nonPhone.ReplaceAllString(s, "")

	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	} else if strings.HasPrefix(s, "0") && len(s) == 10 {
		s = "+225" + s
	} else if strings.HasPrefix(s, "225") {
		s = "+" + s
	}

	return s
}

// WhatsAppAddress prefixes a normalized phone number with the channel's
// whatsapp: scheme, leaving already-prefixed addresses untouched.
func WhatsAppAddress(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:" + phone
}
