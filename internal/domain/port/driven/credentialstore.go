package driven

import (
	"context"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

// CredentialStore defines the driven port for credential persistence.
// Values are stored as codec-tagged ciphertext; the store never sees
// plaintext passwords.
type CredentialStore interface {
	Create(ctx context.Context, cred model.Credential) error

	// GetByID retrieves a single credential. Returns nil, nil if absent.
	GetByID(ctx context.Context, id string) (*model.Credential, error)

	// ListByUser returns all credentials owned by the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Credential, error)

	// ListUnresolvedByUser returns the user's credentials with
	// is_resolved = false, the working set for a monitoring sweep.
	ListUnresolvedByUser(ctx context.Context, userID string) ([]model.Credential, error)

	// ListUnresolved returns every unresolved credential across all users,
	// the working set for the periodic monitor cycle.
	ListUnresolved(ctx context.Context) ([]model.Credential, error)

	// Update replaces all mutable fields of the credential row.
	Update(ctx context.Context, cred model.Credential) error

	// Delete removes the credential; its alerts cascade.
	Delete(ctx context.Context, id string) error

	// CountByUser returns total and breached-unresolved counts for the
	// monitoring status endpoint.
	CountByUser(ctx context.Context, userID string) (total int, breached int, err error)
}
