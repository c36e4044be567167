package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port. Emails are
// lowercased on write and lookup so uniqueness is case-insensitive.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, name, password_hash, last_password_change, password_expires_at,
	       password_reset_required, created_at, updated_at`

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, user model.User) error {
	const query = `
		INSERT INTO users (id, email, name, password_hash, last_password_change, password_expires_at,
			password_reset_required, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		user.ID, strings.ToLower(user.Email), user.Name, user.PasswordHash,
		user.LastPasswordChange.UTC(), user.PasswordExpiresAt.UTC(),
		boolToInt(user.PasswordResetRequired), user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create user %q: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by id. Returns nil, nil if absent.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", id, err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively. Returns nil, nil if absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// Update replaces the user's mutable fields.
func (r *UserRepo) Update(ctx context.Context, user model.User) error {
	const query = `
		UPDATE users SET email = ?, name = ?, password_hash = ?, last_password_change = ?,
			password_expires_at = ?, password_reset_required = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		strings.ToLower(user.Email), user.Name, user.PasswordHash,
		user.LastPasswordChange.UTC(), user.PasswordExpiresAt.UTC(),
		boolToInt(user.PasswordResetRequired), user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user %q: %w", user.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update user %q: no such row", user.ID)
	}

	return nil
}

func scanUser(s scanner) (*model.User, error) {
	var (
		user               model.User
		lastPasswordChange string
		passwordExpiresAt  string
		resetRequired      int
		createdAt          string
		updatedAt          string
	)

	err := s.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&lastPasswordChange, &passwordExpiresAt, &resetRequired, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	user.PasswordResetRequired = resetRequired != 0

	if user.LastPasswordChange, err = parseTime(lastPasswordChange); err != nil {
		return nil, err
	}
	if user.PasswordExpiresAt, err = parseTime(passwordExpiresAt); err != nil {
		return nil, err
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &user, nil
}
