// Package pinpolicy validates PIN format and scores PIN strength.
// It has no dependencies on the rest of the custody stack; the strength
// score is advisory only and never blocks validation.
package pinpolicy

import (
	"errors"
	"strings"
	"unicode"
)

// MinLength is the minimum accepted PIN length.
const MinLength = 8

// Format validation errors. Checks run in a fixed order and the first
// failure wins, so callers get a single actionable reason.
var (
	ErrTooShort    = errors.New("too short")
	ErrNeedsLetter = errors.New("needs a letter")
	ErrNeedsDigit  = errors.New("needs a digit")
)

// weakPrefixes are common sequences a PIN must not start with; matching is
// case-insensitive and only costs strength points, it does not reject.
var weakPrefixes = []string{"123", "abc", "qwerty", "password", "pin"}

// ValidateFormat checks pin against the format policy: at least MinLength
// characters, at least one letter, at least one digit. Returns nil for a
// valid PIN, otherwise the first failing rule's sentinel error.
func ValidateFormat(pin string) error {
	if len(pin) < MinLength {
		return ErrTooShort
	}
	if !containsFunc(pin, unicode.IsLetter) {
		return ErrNeedsLetter
	}
	if !containsFunc(pin, unicode.IsDigit) {
		return ErrNeedsDigit
	}
	return nil
}

// Strength returns an advisory score in [0,100] for the given PIN.
//
// Additive rubric: length>=8 +20, length>=12 +10, length>=16 +10,
// lowercase +10, uppercase +10, digit +10, non-alphanumeric +15.
// Penalties: a run of 3+ identical characters -10, a weak prefix
// ("123", "abc", "qwerty", ...) -20. The result is clamped to [0,100].
func Strength(pin string) int {
	score := 0

	if len(pin) >= 8 {
		score += 20
	}
	if len(pin) >= 12 {
		score += 10
	}
	if len(pin) >= 16 {
		score += 10
	}
	if containsFunc(pin, unicode.IsLower) {
		score += 10
	}
	if containsFunc(pin, unicode.IsUpper) {
		score += 10
	}
	if containsFunc(pin, unicode.IsDigit) {
		score += 10
	}
	if containsFunc(pin, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		score += 15
	}

	if hasRepeatRun(pin, 3) {
		score -= 10
	}
	lower := strings.ToLower(pin)
	for _, p := range weakPrefixes {
		if strings.HasPrefix(lower, p) {
			score -= 20
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func containsFunc(s string, f func(rune) bool) bool {
	for _, r := range s {
		if f(r) {
			return true
		}
	}
	return false
}

// hasRepeatRun reports whether s contains n or more identical consecutive
// characters.
func hasRepeatRun(s string, n int) bool {
	run := 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
