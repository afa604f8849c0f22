package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already e164", "+2250701020304", "+2250701020304"},
		{"whatsapp prefix stripped", "whatsapp:+2250701020304", "+2250701020304"},
		{"local with leading zero", "0701020304", "+2250701020304"},
		{"country code without plus", "2250701020304", "+2250701020304"},
		{"double zero prefix", "002250701020304", "+2250701020304"},
		{"spaces and dashes", " +225 07-01-02-03-04 ", "+2250701020304"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhone(tc.in))
		})
	}
}

func TestWhatsAppAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+2250701020304", WhatsAppAddress("+2250701020304"))
	assert.Equal(t, "whatsapp:+2250701020304", WhatsAppAddress("whatsapp:+2250701020304"))
}
