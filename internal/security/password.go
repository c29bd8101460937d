package security

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yukikurage/civic-proposals-api/internal/constants"
)

type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthGood   Strength = "good"
	StrengthStrong Strength = "strong"
)

// PasswordSymbols is the fixed set of characters that count as symbols.
const PasswordSymbols = "!@#$%^&*()_+-=[]{};':\",.<>/?\\|`~"

// Violation messages
const (
	ViolationTooShort   = "password must be at least 8 characters"
	ViolationLowercase  = "password must contain a lowercase letter"
	ViolationUppercase  = "password must contain an uppercase letter"
	ViolationDigit      = "password must contain a digit"
	ViolationSymbol     = "password must contain a symbol"
	ViolationCommon     = "password is too common"
	ViolationRepeated   = "password must not repeat the same character 4 or more times in a row"
	ViolationSequential = "short passwords must not contain trivial sequences"
)

// passwords shorter than this may not contain a trivial sequence
const sequenceCheckLength = 12

const minSequenceRun = 4

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password12":  {},
	"passw0rd":    {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"admin123":    {},
	"letmein1":    {},
	"welcome1":    {},
	"abc12345":    {},
	"football1":   {},
	"11111111":    {},
	"00000000":    {},
	"changeme":    {},
	"trustno1":    {},
	"sunshine1":   {},
}

var trivialSequences = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"0123456789",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

// PasswordCheck is the outcome of evaluating a password.
type PasswordCheck struct {
	Valid      bool     `json:"valid"`
	Strength   Strength `json:"strength"`
	Violations []string `json:"violations,omitempty"`
}

// PasswordPolicy validates passwords. When disabled only emptiness is rejected.
type PasswordPolicy struct {
	Enabled bool
}

// NewPasswordPolicy creates a policy; enabled mirrors the security-controls flag.
func NewPasswordPolicy(enabled bool) PasswordPolicy {
	return PasswordPolicy{Enabled: enabled}
}

// Check evaluates the password and classifies its strength.
func (p PasswordPolicy) Check(password string) PasswordCheck {
	strength := ClassifyPassword(password)

	if !p.Enabled {
		if password == "" {
			return PasswordCheck{Strength: strength, Violations: []string{ViolationTooShort}}
		}
		return PasswordCheck{Valid: true, Strength: strength}
	}

	violations := passwordViolations(password)
	return PasswordCheck{
		Valid:      len(violations) == 0,
		Strength:   strength,
		Violations: violations,
	}
}

func passwordViolations(password string) []string {
	var violations []string
	classes := characterClasses(password)

	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		violations = append(violations, ViolationTooShort)
	}
	if !classes.lower {
		violations = append(violations, ViolationLowercase)
	}
	if !classes.upper {
		violations = append(violations, ViolationUppercase)
	}
	if !classes.digit {
		violations = append(violations, ViolationDigit)
	}
	if !classes.symbol {
		violations = append(violations, ViolationSymbol)
	}
	if isCommonPassword(password) {
		violations = append(violations, ViolationCommon)
	}
	if hasRepeatedRun(password, minSequenceRun) {
		violations = append(violations, ViolationRepeated)
	}
	if utf8.RuneCountInString(password) < sequenceCheckLength && hasTrivialSequence(password) {
		violations = append(violations, ViolationSequential)
	}
	return violations
}

// ClassifyPassword scores character variety and length, with penalties for weak patterns.
func ClassifyPassword(password string) Strength {
	if isCommonPassword(password) {
		return StrengthWeak
	}

	classes := characterClasses(password)
	score := classes.count()
	length := utf8.RuneCountInString(password)
	for _, threshold := range []int{constants.MinPasswordLength, 12, 16} {
		if length >= threshold {
			score++
		}
	}
	if hasRepeatedRun(password, minSequenceRun) {
		score--
	}
	if hasTrivialSequence(password) {
		score--
	}

	switch {
	case score >= 7:
		return StrengthStrong
	case score >= 5:
		return StrengthGood
	case score == 4:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

type classSet struct {
	lower, upper, digit, symbol bool
}

func (c classSet) count() int {
	n := 0
	for _, ok := range []bool{c.lower, c.upper, c.digit, c.symbol} {
		if ok {
			n++
		}
	}
	return n
}

func characterClasses(password string) classSet {
	var c classSet
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsDigit(r):
			c.digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			c.symbol = true
		}
	}
	return c
}

func isCommonPassword(password string) bool {
	_, ok := commonPasswords[strings.ToLower(password)]
	return ok
}

func hasRepeatedRun(password string, n int) bool {
	run := 0
	var prev rune
	for i, r := range password {
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

// hasTrivialSequence looks for 4+ consecutive characters of an alphabet, digit or
// keyboard row sequence, in either direction.
func hasTrivialSequence(password string) bool {
	lower := strings.ToLower(password)
	runes := []rune(lower)
	if len(runes) < minSequenceRun {
		return false
	}

	for i := 0; i+minSequenceRun <= len(runes); i++ {
		window := string(runes[i : i+minSequenceRun])
		reversed := reverse(window)
		for _, seq := range trivialSequences {
			if strings.Contains(seq, window) || strings.Contains(seq, reversed) {
				return true
			}
		}
	}
	return false
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
