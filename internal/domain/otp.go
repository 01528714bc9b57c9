package domain

import (
	"regexp"
	"strings"
)

// OTPLength is the number of digits in a mailed verification code.
const OTPLength = 6

var otpPattern = regexp.MustCompile(`^\d{6}$`)

// NormalizeOTP mirrors what the code input field does as the user types:
// non-digit characters are stripped and the result is truncated to six
// characters.
func NormalizeOTP(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == OTPLength {
			break
		}
	}
	return b.String()
}

// ValidOTP reports whether code is exactly six digits. Submission is
// blocked client-side until this holds.
func ValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}
