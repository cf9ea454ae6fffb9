package identity

import "strings"

// NormalizeHandle folds a raw handle for comparison. Handles are compared
// case-insensitively; phone-number-like handles additionally drop formatting
// punctuation so "+1 (555) 010-2000" and "+15550102000" compare equal.
func NormalizeHandle(handle string) string {
	h := strings.ToLower(strings.TrimSpace(handle))
	if !isPhoneLike(h) {
		return h
	}
	var b strings.Builder
	for i, r := range h {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isPhoneLike reports whether s consists only of digits and the punctuation
// people use when writing phone numbers, with at least one digit.
func isPhoneLike(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("+-(). ", r):
		default:
			return false
		}
	}
	return digits > 0
}

// phoneSuffix returns the last ten digits of a normalized phone handle, or ""
// when the handle is not a phone number of at least that length. Address book
// entries often omit the country code the archive records.
func phoneSuffix(normalized string) string {
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < 10 || !isPhoneLike(digits) {
		return ""
	}
	return digits[len(digits)-10:]
}
