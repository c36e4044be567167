package model

import "time"

// User is an authenticated principal. Email is unique case-insensitively;
// the stores lowercase it on write and lookup.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string

	LastPasswordChange    time.Time
	PasswordExpiresAt     time.Time
	PasswordResetRequired bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
