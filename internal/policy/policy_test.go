package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func credChangedDaysAgo(days int) model.Credential {
	return model.Credential{
		LastPasswordChange: testNow.AddDate(0, 0, -days),
	}
}

func TestExpiration(t *testing.T) {
	changed := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC), Expiration(changed))
}

func TestAgeDays(t *testing.T) {
	assert.Equal(t, 0, AgeDays(testNow, testNow))
	assert.Equal(t, 1, AgeDays(testNow.Add(-25*time.Hour), testNow))
	assert.Equal(t, 0, AgeDays(testNow.Add(-23*time.Hour), testNow))
	assert.Equal(t, 91, AgeDays(testNow.AddDate(0, 0, -91), testNow))

	// Clock skew never produces a negative age.
	assert.Equal(t, 0, AgeDays(testNow.Add(2*time.Hour), testNow))
}

func TestClassify_ExpiryLadder(t *testing.T) {
	cases := []struct {
		name    string
		ageDays int
		want    model.CredentialStatus
	}{
		{"fresh", 1, model.StatusSafe},
		{"just inside safe window", 59, model.StatusSafe},
		{"thirty days left", 60, model.StatusExpiring},
		{"eight days left", 82, model.StatusExpiring},
		{"seven days left", 83, model.StatusExpiringSoon},
		{"five days left", 85, model.StatusExpiringSoon},
		{"due today", 90, model.StatusExpiringSoon},
		{"one day overdue", 91, model.StatusExpired},
		{"long overdue", 300, model.StatusExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(credChangedDaysAgo(tc.ageDays), testNow))
		})
	}
}

func TestClassify_BreachOutranksExpiry(t *testing.T) {
	cred := credChangedDaysAgo(120)
	cred.IsBreached = true
	assert.Equal(t, model.StatusBreached, Classify(cred, testNow))
}

func TestClassify_ResolvedBreachFallsBackToExpiry(t *testing.T) {
	cred := credChangedDaysAgo(120)
	cred.IsBreached = true
	cred.IsResolved = true
	assert.Equal(t, model.StatusExpired, Classify(cred, testNow))
}

func TestStrength(t *testing.T) {
	cases := []struct {
		password     string
		wantScore    int
		wantFeedback string
	}{
		{"", 0, "Use at least 8 characters, Add lowercase letters, Add uppercase letters, Add numbers, Add symbols"},
		{"abc", 1, "Use at least 8 characters, Add uppercase letters, Add numbers, Add symbols"},
		{"abcdefgh", 2, "Add uppercase letters, Add numbers, Add symbols"},
		{"Abcdef1!", 5, "Very Strong"},
		{"Abcdefgh1234!xyz", 6, "Very Strong"},
		{"Abcdefgh1234!xyzQRSTuv", 6, "Very Strong"},
	}

	for _, tc := range cases {
		score, feedback := Strength(tc.password)
		assert.Equal(t, tc.wantScore, score, "score for %q", tc.password)
		assert.Equal(t, tc.wantFeedback, feedback, "feedback for %q", tc.password)
	}
}

func TestStrength_NeverExceedsCap(t *testing.T) {
	// 20+ chars with all classes would be 8 raw criteria; capped at 6.
	score, _ := Strength("Abcdefghij1234567890!xyz")
	assert.Equal(t, MaxStrengthScore, score)
}
