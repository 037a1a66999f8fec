package phone

import "strings"

// FormatTo63 normalizes a Philippine phone number into +63 international
// dialing form. Separators and leading zeros are stripped; a "63" country
// code is kept if already present, otherwise prepended. Returns the empty
// string when the input contains no digits.
func FormatTo63(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, "63") {
		digits = "63" + digits
	}
	return "+" + digits
}
