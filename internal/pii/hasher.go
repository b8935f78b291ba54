// Package pii normalizes and one-way hashes personally identifiable fields
// before they are transmitted to the advertising platform. Malformed fields
// are dropped rather than failing the event: one bad field must never block
// delivery.
package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Lengths used by field validation.
const (
	phoneNationalLength = 10
	stateCodeLength     = 2
	dateOfBirthLength   = 8
)

// defaultCountryCallingCode is prepended to bare national phone numbers.
const defaultCountryCallingCode = "1"

// Hash returns the hex-encoded sha256 digest of the trimmed, lowercased
// value. Identical normalized inputs always produce identical output; the
// platform relies on this for audience matching.
func Hash(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NormalizeEmail lowercases and trims an email address.
// Returns ok=false for empty input.
func NormalizeEmail(s string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(s))
	if email == "" {
		return "", false
	}
	return email, true
}

// NormalizePhone strips all non-digit characters and prepends the default
// country calling code to bare 10-digit national numbers.
// Returns ok=false if no digits remain.
func NormalizePhone(s string) (string, bool) {
	digits := keepDigits(s)
	if digits == "" {
		return "", false
	}
	if len(digits) == phoneNationalLength && !strings.HasPrefix(digits, defaultCountryCallingCode) {
		digits = defaultCountryCallingCode + digits
	}
	return digits, true
}

// NormalizeName lowercases a name and strips all non-letter characters.
// Returns ok=false if nothing remains; an empty hash must not be sent.
func NormalizeName(s string) (string, bool) {
	name := keepLetters(strings.ToLower(s))
	if name == "" {
		return "", false
	}
	return name, true
}

// NormalizeCity lowercases a city name and strips all whitespace.
// Returns ok=false for empty input.
func NormalizeCity(s string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	city := b.String()
	if city == "" {
		return "", false
	}
	return city, true
}

// NormalizeState lowercases a state value, strips non-letters, and truncates
// it to a two-letter code. Values shorter than two letters are omitted.
// truncated reports whether characters were cut off, so callers can surface
// full state names that silently lose information ("texas" becomes "te").
func NormalizeState(s string) (code string, truncated, ok bool) {
	letters := keepLetters(strings.ToLower(s))
	if len(letters) < stateCodeLength {
		return "", false, false
	}
	return letters[:stateCodeLength], len(letters) > stateCodeLength, true
}

// NormalizeZip trims and lowercases a postal code.
// Returns ok=false for empty input.
func NormalizeZip(s string) (string, bool) {
	zip := strings.ToLower(strings.TrimSpace(s))
	if zip == "" {
		return "", false
	}
	return zip, true
}

// NormalizeDateOfBirth strips non-digit characters and requires exactly
// eight digits (YYYYMMDD). Anything else is omitted.
func NormalizeDateOfBirth(s string) (string, bool) {
	digits := keepDigits(s)
	if len(digits) != dateOfBirthLength {
		return "", false
	}
	return digits, true
}

// NormalizeCountry lowercases and trims a country value, falling back to the
// given default when absent. Returns ok=false only if both are empty.
func NormalizeCountry(s, fallback string) (string, bool) {
	country := strings.ToLower(strings.TrimSpace(s))
	if country == "" {
		country = strings.ToLower(strings.TrimSpace(fallback))
	}
	if country == "" {
		return "", false
	}
	return country, true
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepLetters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
