package model

import "time"

// BreachAlert records a single breach transition for a credential. Alerts
// are append-only: once created, only the notification flags may change.
type BreachAlert struct {
	ID           string
	CredentialID string
	BreachSource string
	BreachDate   time.Time
	Notified     bool
	NotifiedAt   *time.Time
	CreatedAt    time.Time
}
