package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Passwords arrive already encrypted by the secret codec; breach details
// are serialized as a JSON array in the TEXT column.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

const credentialColumns = `id, user_id, service_name, username, url, notes, encrypted_password,
	       is_breached, breach_details, is_resolved, resolved_at, last_checked,
	       last_password_change, password_expires_at, created_at, updated_at`

// Create inserts a new credential row.
func (r *CredentialRepo) Create(ctx context.Context, cred model.Credential) error {
	const query = `
		INSERT INTO credentials (
			id, user_id, service_name, username, url, notes, encrypted_password,
			is_breached, breach_details, is_resolved, resolved_at, last_checked,
			last_password_change, password_expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	detailsJSON, err := marshalDetails(cred.BreachDetails)
	if err != nil {
		return err
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		cred.ID, cred.UserID, cred.ServiceName, cred.Username, cred.URL, cred.Notes,
		cred.EncryptedPassword, boolToInt(cred.IsBreached), detailsJSON,
		boolToInt(cred.IsResolved), nullableTime(cred.ResolvedAt), nullableTime(cred.LastChecked),
		cred.LastPasswordChange.UTC(), cred.PasswordExpiresAt.UTC(),
		cred.CreatedAt.UTC(), cred.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create credential %q: %w", cred.ID, err)
	}

	return nil
}

// GetByID retrieves a single credential. Returns nil, nil if absent.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", id, err)
	}

	return cred, nil
}

// ListByUser returns all credentials owned by the user, newest first.
func (r *CredentialRepo) ListByUser(ctx context.Context, userID string) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE user_id = ? ORDER BY created_at DESC`
	return r.queryCredentials(ctx, query, userID)
}

// ListUnresolvedByUser returns the user's credentials with is_resolved = false.
func (r *CredentialRepo) ListUnresolvedByUser(ctx context.Context, userID string) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE user_id = ? AND is_resolved = 0 ORDER BY created_at DESC`
	return r.queryCredentials(ctx, query, userID)
}

// ListUnresolved returns every unresolved credential across all users.
func (r *CredentialRepo) ListUnresolved(ctx context.Context) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE is_resolved = 0 ORDER BY created_at DESC`
	return r.queryCredentials(ctx, query)
}

// Update replaces all mutable fields of the credential row.
func (r *CredentialRepo) Update(ctx context.Context, cred model.Credential) error {
	const query = `
		UPDATE credentials SET
			service_name = ?, username = ?, url = ?, notes = ?, encrypted_password = ?,
			is_breached = ?, breach_details = ?, is_resolved = ?, resolved_at = ?,
			last_checked = ?, last_password_change = ?, password_expires_at = ?, updated_at = ?
		WHERE id = ?
	`

	detailsJSON, err := marshalDetails(cred.BreachDetails)
	if err != nil {
		return err
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		cred.ServiceName, cred.Username, cred.URL, cred.Notes, cred.EncryptedPassword,
		boolToInt(cred.IsBreached), detailsJSON, boolToInt(cred.IsResolved),
		nullableTime(cred.ResolvedAt), nullableTime(cred.LastChecked),
		cred.LastPasswordChange.UTC(), cred.PasswordExpiresAt.UTC(), cred.UpdatedAt.UTC(),
		cred.ID,
	)
	if err != nil {
		return fmt.Errorf("update credential %q: %w", cred.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update credential %q: no such row", cred.ID)
	}

	return nil
}

// Delete removes the credential. Breach alerts cascade via foreign key.
func (r *CredentialRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM credentials WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete credential %q: %w", id, err)
	}
	return nil
}

// CountByUser returns the total credential count and the breached-unresolved
// count for the user.
func (r *CredentialRepo) CountByUser(ctx context.Context, userID string) (int, int, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_breached = 1 AND is_resolved = 0 THEN 1 ELSE 0 END), 0)
		FROM credentials WHERE user_id = ?
	`

	var total, breached int
	if err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&total, &breached); err != nil {
		return 0, 0, fmt.Errorf("count credentials for user %q: %w", userID, err)
	}

	return total, breached, nil
}

func (r *CredentialRepo) queryCredentials(ctx context.Context, query string, args ...any) ([]model.Credential, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	if creds == nil {
		creds = []model.Credential{}
	}

	return creds, nil
}

func scanCredential(s scanner) (*model.Credential, error) {
	var (
		cred               model.Credential
		isBreached         int
		isResolved         int
		detailsJSON        string
		resolvedAt         sql.NullString
		lastChecked        sql.NullString
		lastPasswordChange string
		passwordExpiresAt  string
		createdAt          string
		updatedAt          string
	)

	err := s.Scan(
		&cred.ID, &cred.UserID, &cred.ServiceName, &cred.Username, &cred.URL, &cred.Notes,
		&cred.EncryptedPassword, &isBreached, &detailsJSON, &isResolved,
		&resolvedAt, &lastChecked, &lastPasswordChange, &passwordExpiresAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cred.IsBreached = isBreached != 0
	cred.IsResolved = isResolved != 0

	if err := json.Unmarshal([]byte(detailsJSON), &cred.BreachDetails); err != nil {
		return nil, fmt.Errorf("unmarshal breach details: %w", err)
	}
	if cred.BreachDetails == nil {
		cred.BreachDetails = []string{}
	}

	if cred.ResolvedAt, err = parseNullTime(resolvedAt); err != nil {
		return nil, err
	}
	if cred.LastChecked, err = parseNullTime(lastChecked); err != nil {
		return nil, err
	}
	if cred.LastPasswordChange, err = parseTime(lastPasswordChange); err != nil {
		return nil, err
	}
	if cred.PasswordExpiresAt, err = parseTime(passwordExpiresAt); err != nil {
		return nil, err
	}
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &cred, nil
}

func marshalDetails(details []string) (string, error) {
	if details == nil {
		details = []string{}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("marshal breach details: %w", err)
	}
	return string(b), nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
