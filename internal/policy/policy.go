// Package policy implements password aging, expiration, and strength rules.
package policy

import (
	"time"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

const (
	// ExpiryDays is how long a password remains valid after a change.
	ExpiryDays = 90
	// ExpiringSoonDays is the threshold for the expiring_soon status.
	ExpiringSoonDays = 7
	// ExpiringDays is the threshold for the expiring status.
	ExpiringDays = 30
)

// Expiration returns the expiry instant for a password changed at lastChange.
func Expiration(lastChange time.Time) time.Time {
	return lastChange.AddDate(0, 0, ExpiryDays)
}

// AgeDays returns the whole days elapsed since lastChange, floored, never
// negative.
func AgeDays(lastChange, now time.Time) int {
	days := int(now.Sub(lastChange).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Classify returns the display status of a credential. An unresolved breach
// outranks every expiry state; expiry states are ordered by urgency.
func Classify(cred model.Credential, now time.Time) model.CredentialStatus {
	if cred.IsBreached && !cred.IsResolved {
		return model.StatusBreached
	}

	daysLeft := ExpiryDays - AgeDays(cred.LastPasswordChange, now)
	switch {
	case daysLeft < 0:
		return model.StatusExpired
	case daysLeft <= ExpiringSoonDays:
		return model.StatusExpiringSoon
	case daysLeft <= ExpiringDays:
		return model.StatusExpiring
	default:
		return model.StatusSafe
	}
}

// DaysUntilExpiry returns the whole days remaining before the password
// expires; negative once past due.
func DaysUntilExpiry(lastChange, now time.Time) int {
	return ExpiryDays - AgeDays(lastChange, now)
}
