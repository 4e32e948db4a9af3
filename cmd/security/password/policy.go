package password

import "unicode/utf16"

// MinLength is the minimum password length in UTF-16 code units, so a
// character outside the Basic Multilingual Plane counts as two.
const MinLength = 8

// PolicyMessage is the user-facing description of the policy.
const PolicyMessage = "Password must be at least 8 characters long and include uppercase letters, lowercase letters, numbers, and special characters."

// IsValid reports whether candidate satisfies the registration policy:
// at least MinLength UTF-16 code units, one ASCII digit, one ASCII lowercase letter,
// one ASCII uppercase letter and one special character.
//
// Special means anything outside [A-Za-z0-9], so underscore, whitespace and
// non-ASCII letters all count. Line terminators are rejected outright.
func IsValid(candidate string) bool {
	if utf16Len(candidate) < MinLength {
		return false
	}

	var digit, lower, upper, special bool
	for _, r := range candidate {
		switch {
		case isLineTerminator(r):
			return false
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		default:
			special = true
		}
	}
	return digit && lower && upper && special
}

func isLineTerminator(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return false
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}
