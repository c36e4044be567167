package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

// SessionStore defines the driven port for session persistence. Tokens are
// opaque; expiry interpretation belongs to the caller, but DeleteExpired
// lets the monitor loop purge dead rows in bulk.
type SessionStore interface {
	Create(ctx context.Context, session model.Session) error

	// GetByToken retrieves a session by its token. Returns nil, nil if
	// absent. Expired sessions are returned as stored; the caller decides
	// whether to delete them.
	GetByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteByToken removes the session. Deleting an absent token is not
	// an error.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired removes every session with expires_at before cutoff
	// and returns the number of rows deleted.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
