// Package phone validates and formats national mobile numbers.
//
// Two shapes of the same national number are accepted: "09xxxxxxxxx"
// (11 digits) and "9xxxxxxxxx" (the same 10 digits without the leading
// zero). Validate does NOT collapse the two shapes into one canonical
// key: OTP state is keyed by whichever string the caller sent, so a
// client that sends one shape at request time and the other at verify
// time will miss its own entry. That asymmetry is inherited behavior
// and is kept on purpose.
package phone

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var ErrInvalidFormat = errors.New("invalid phone number format")

var mobilePattern = regexp.MustCompile(`^(09\d{9}|9\d{9})$`)

// Validate strips all whitespace from raw and checks it against the
// two accepted shapes. It returns the trimmed string unchanged.
func Validate(raw string) (string, error) {
	trimmed := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if !mobilePattern.MatchString(trimmed) {
		return "", ErrInvalidFormat
	}
	return trimmed, nil
}

// ProviderFormat rewrites a validated number into the provider's
// international form: the leading zero is dropped and the country
// prefix "98" is prepended unless already present.
func ProviderFormat(number string) string {
	formatted := strings.TrimPrefix(number, "0")
	if !strings.HasPrefix(formatted, "98") {
		formatted = "98" + formatted
	}
	return formatted
}
