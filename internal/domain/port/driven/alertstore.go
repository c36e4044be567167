package driven

import (
	"context"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

// AlertStore defines the driven port for breach alert persistence. Alerts
// are append-only history; the only permitted mutation is marking a
// delivered notification.
type AlertStore interface {
	Create(ctx context.Context, alert model.BreachAlert) error

	// ListByCredential returns all alerts for the credential, newest first.
	ListByCredential(ctx context.Context, credentialID string) ([]model.BreachAlert, error)

	// LatestByCredential returns the most recent alert, or nil, nil if the
	// credential has never transitioned to breached.
	LatestByCredential(ctx context.Context, credentialID string) (*model.BreachAlert, error)

	// MarkNotified sets notified = true and notified_at = now on the alert.
	MarkNotified(ctx context.Context, alertID string) error
}
