package model

import "time"

// Credential is a stored service/account/password triple. The password is
// held as versioned ciphertext (see internal/secret); everything else is
// plaintext metadata about the entry and its breach state.
type Credential struct {
	ID          string
	UserID      string
	ServiceName string
	Username    string
	URL         string
	Notes       string

	// EncryptedPassword is the codec-tagged ciphertext as stored. Plaintext
	// exists only transiently at the vault service boundary.
	EncryptedPassword string

	IsBreached    bool
	BreachDetails []string
	IsResolved    bool
	ResolvedAt    *time.Time

	LastChecked        *time.Time
	LastPasswordChange time.Time
	PasswordExpiresAt  time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PasswordAgeDays returns the age of the stored password in whole days at
// the given instant. Never negative; clock skew clamps to zero.
func (c Credential) PasswordAgeDays(now time.Time) int {
	days := int(now.Sub(c.LastPasswordChange).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CredentialChanges is an explicit changeset for updating a credential.
// Nil fields are left unchanged. A non-nil Password triggers re-encryption,
// resets the password age clock, and forces a fresh breach evaluation.
type CredentialChanges struct {
	ServiceName *string
	Username    *string
	URL         *string
	Notes       *string
	Password    *string
	Resolved    *bool
}

// Apply merges the changeset's plain metadata fields into the credential.
// Password and Resolved are handled by the vault service because they carry
// side effects (re-encryption, breach re-evaluation, resolution timestamps).
func (ch CredentialChanges) Apply(c *Credential) {
	if ch.ServiceName != nil && *ch.ServiceName != "" {
		c.ServiceName = *ch.ServiceName
	}
	if ch.Username != nil {
		c.Username = *ch.Username
	}
	if ch.URL != nil {
		c.URL = *ch.URL
	}
	if ch.Notes != nil {
		c.Notes = *ch.Notes
	}
}
