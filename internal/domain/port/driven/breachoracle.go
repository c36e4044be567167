package driven

import (
	"context"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

// BreachOracle defines the driven port for the external breach corpora.
// Both lookups are fail-open: on transport, timeout, or parse failure the
// result is Found = false and the returned error exists for logging only.
// Callers must not treat a non-nil error as a hard failure.
type BreachOracle interface {
	// CheckPassword performs a k-anonymity lookup of the password against
	// the breached-password corpus. Only the first five hex characters of
	// the password's digest leave the process.
	CheckPassword(ctx context.Context, password string) (model.BreachResult, error)

	// CheckService looks the service name up in the breached-domain
	// directory. An oracle "not found" is a normal Found = false outcome,
	// not an error.
	CheckService(ctx context.Context, serviceName string) (model.BreachResult, error)
}
