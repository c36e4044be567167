package policy

import "strings"

// MaxStrengthScore caps the strength score.
const MaxStrengthScore = 6

var strengthLabels = []string{"Very Weak", "Weak", "Fair", "Good", "Strong", "Very Strong"}

// Strength scores a password 0..6 and returns feedback: the unmet criteria
// joined with ", ", or a qualitative label when every criterion is met.
func Strength(password string) (score int, feedback string) {
	var unmet []string

	if len(password) >= 8 {
		score++
	} else {
		unmet = append(unmet, "Use at least 8 characters")
	}
	if len(password) >= 12 {
		score++
	}
	if len(password) >= 16 {
		score++
	}

	if strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		score++
	} else {
		unmet = append(unmet, "Add lowercase letters")
	}
	if strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		score++
	} else {
		unmet = append(unmet, "Add uppercase letters")
	}
	if strings.ContainsAny(password, digitChars) {
		score++
	} else {
		unmet = append(unmet, "Add numbers")
	}
	if strings.ContainsFunc(password, isSymbol) {
		score++
	} else {
		unmet = append(unmet, "Add symbols")
	}

	if len(password) >= 20 {
		score++
	}

	if score > MaxStrengthScore {
		score = MaxStrengthScore
	}

	if len(unmet) > 0 {
		return score, strings.Join(unmet, ", ")
	}

	label := score
	if label >= len(strengthLabels) {
		label = len(strengthLabels) - 1
	}
	return score, strengthLabels[label]
}

func isSymbol(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	default:
		return true
	}
}
