package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
	"github.com/ericfisherdev/breachwatch/internal/policy"
)

const (
	// sessionTokenBytes is the entropy of an opaque session token (256 bits).
	sessionTokenBytes = 32
	// minPasswordLength applies to account passwords, not vault entries.
	minPasswordLength = 8
)

// AuthService manages user accounts and their sessions. Tokens are opaque
// random values; the store row is the only authority on validity, so
// logout revokes immediately.
type AuthService struct {
	users    driven.UserStore
	sessions driven.SessionStore
	ttl      time.Duration
}

// NewAuthService creates an AuthService issuing sessions with the given TTL.
func NewAuthService(users driven.UserStore, sessions driven.SessionStore, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.E(apperr.KindValidation, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.E(apperr.KindValidation, "password must be at least 8 characters")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "look up user", err)
	}
	if existing != nil {
		return nil, apperr.E(apperr.KindValidation, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:                 uuid.NewString(),
		Email:              email,
		Name:               name,
		PasswordHash:       string(hash),
		LastPasswordChange: now,
		PasswordExpiresAt:  policy.Expiration(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "create user", err)
	}

	slog.Info("user registered", "user", user.ID)
	return &user, nil
}

// Login verifies the password and issues a new session. Unknown email and
// wrong password share one outcome so login does not leak account existence.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindStore, "look up user", err)
	}
	if user == nil {
		return nil, nil, apperr.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindStore, "create session", err)
	}

	return &session, user, nil
}

// Validate resolves a token to its user. Expiry is lazy: an expired row is
// deleted here, on presentation, and reads as ErrSessionExpired exactly once.
func (s *AuthService) Validate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperr.ErrNoSession
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "look up session", err)
	}
	if session == nil {
		return nil, apperr.ErrNoSession
	}

	if session.Expired(time.Now().UTC()) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil {
			slog.Error("delete expired session failed", "session", session.ID, "error", err)
		}
		return nil, apperr.ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "load session user", err)
	}
	if user == nil {
		return nil, apperr.ErrNoSession
	}

	return user, nil
}

// Logout revokes the session. Revoking an absent or already-revoked token
// succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return apperr.Wrap(apperr.KindStore, "delete session", err)
	}
	return nil
}

// ChangePassword verifies the current account password and replaces it,
// resetting the 90-day expiry clock and clearing any forced-reset flag.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "load user", err)
	}
	if user == nil {
		return apperr.E(apperr.KindNotFound, "user not found")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return apperr.E(apperr.KindAuth, "current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return apperr.E(apperr.KindValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user.PasswordHash = string(hash)
	user.LastPasswordChange = now
	user.PasswordExpiresAt = policy.Expiration(now)
	user.PasswordResetRequired = false
	user.UpdatedAt = now

	if err := s.users.Update(ctx, *user); err != nil {
		return apperr.Wrap(apperr.KindStore, "update user", err)
	}

	return nil
}

// PurgeExpired deletes every expired session row and returns the count.
// Lazy expiry already covers presented tokens; this sweep bounds table
// growth from sessions that are never presented again.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStore, "purge expired sessions", err)
	}
	return n, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
