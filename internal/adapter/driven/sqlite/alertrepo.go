package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AlertStore = (*AlertRepo)(nil)

// AlertRepo is the SQLite implementation of the AlertStore port. Alert rows
// are append-only; MarkNotified is the only mutation.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new AlertRepo backed by the given DB.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

const alertColumns = `id, credential_id, breach_source, breach_date, notified, notified_at, created_at`

// Create inserts a new breach alert row.
func (r *AlertRepo) Create(ctx context.Context, alert model.BreachAlert) error {
	const query = `
		INSERT INTO breach_alerts (id, credential_id, breach_source, breach_date, notified, notified_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		alert.ID, alert.CredentialID, alert.BreachSource, alert.BreachDate.UTC(),
		boolToInt(alert.Notified), nullableTime(alert.NotifiedAt), alert.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create breach alert %q: %w", alert.ID, err)
	}

	return nil
}

// ListByCredential returns all alerts for the credential, newest first.
func (r *AlertRepo) ListByCredential(ctx context.Context, credentialID string) ([]model.BreachAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM breach_alerts WHERE credential_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("list breach alerts for %q: %w", credentialID, err)
	}
	defer rows.Close()

	var alerts []model.BreachAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan breach alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breach alerts: %w", err)
	}

	if alerts == nil {
		alerts = []model.BreachAlert{}
	}

	return alerts, nil
}

// LatestByCredential returns the most recent alert, or nil, nil if the
// credential has never transitioned to breached.
func (r *AlertRepo) LatestByCredential(ctx context.Context, credentialID string) (*model.BreachAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM breach_alerts WHERE credential_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`

	alert, err := scanAlert(r.db.Reader.QueryRowContext(ctx, query, credentialID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest breach alert for %q: %w", credentialID, err)
	}

	return alert, nil
}

// MarkNotified records a successful notification delivery on the alert.
func (r *AlertRepo) MarkNotified(ctx context.Context, alertID string) error {
	const query = `UPDATE breach_alerts SET notified = 1, notified_at = ? WHERE id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, time.Now().UTC(), alertID); err != nil {
		return fmt.Errorf("mark breach alert %q notified: %w", alertID, err)
	}

	return nil
}

func scanAlert(s scanner) (*model.BreachAlert, error) {
	var (
		alert      model.BreachAlert
		breachDate string
		notified   int
		notifiedAt sql.NullString
		createdAt  string
	)

	err := s.Scan(&alert.ID, &alert.CredentialID, &alert.BreachSource, &breachDate, &notified, &notifiedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	alert.Notified = notified != 0

	if alert.BreachDate, err = parseTime(breachDate); err != nil {
		return nil, err
	}
	if alert.NotifiedAt, err = parseNullTime(notifiedAt); err != nil {
		return nil, err
	}
	if alert.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &alert, nil
}
