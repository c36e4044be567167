package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
	"github.com/ericfisherdev/breachwatch/internal/policy"
	"github.com/ericfisherdev/breachwatch/internal/secret"
)

// CredentialInput carries the caller-supplied fields for a new credential.
type CredentialInput struct {
	ServiceName string
	Username    string
	URL         string
	Notes       string
	Password    string
}

// CredentialDetail pairs a credential with its decrypted secret and the
// most recent breach alert, for display.
type CredentialDetail struct {
	Credential  model.Credential
	Password    string
	LatestAlert *model.BreachAlert
}

// VaultService implements credential CRUD. Plaintext passwords exist only
// inside its methods; everything it persists went through the codec first.
// Every operation enforces ownership, and a credential owned by another
// user reads as not found so ids do not leak existence.
type VaultService struct {
	credStore  driven.CredentialStore
	alertStore driven.AlertStore
	codec      *secret.Codec
	breach     *BreachService
}

// NewVaultService creates a VaultService.
func NewVaultService(
	credStore driven.CredentialStore,
	alertStore driven.AlertStore,
	codec *secret.Codec,
	breach *BreachService,
) *VaultService {
	return &VaultService{
		credStore:  credStore,
		alertStore: alertStore,
		codec:      codec,
		breach:     breach,
	}
}

// Create validates, encrypts, and stores a new credential, then runs the
// initial breach evaluation synchronously so the caller sees the breach
// state of the secret they just saved.
func (s *VaultService) Create(ctx context.Context, userID string, in CredentialInput) (*model.Credential, error) {
	if strings.TrimSpace(in.ServiceName) == "" {
		return nil, apperr.E(apperr.KindValidation, "service name is required")
	}
	if in.Password == "" {
		return nil, apperr.E(apperr.KindValidation, "password is required")
	}

	encrypted, err := s.codec.Encode(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCodecFailure, "encrypt password", err)
	}

	now := time.Now().UTC()
	cred := model.Credential{
		ID:                 uuid.NewString(),
		UserID:             userID,
		ServiceName:        in.ServiceName,
		Username:           in.Username,
		URL:                in.URL,
		Notes:              in.Notes,
		EncryptedPassword:  encrypted,
		BreachDetails:      []string{},
		LastPasswordChange: now,
		PasswordExpiresAt:  policy.Expiration(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.credStore.Create(ctx, cred); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "create credential", err)
	}

	checked, err := s.breach.Evaluate(ctx, cred.ID)
	if err != nil {
		slog.Warn("initial breach evaluation failed", "credential", cred.ID, "error", err)
		return &cred, nil
	}

	return checked, nil
}

// Get returns the credential with its decrypted password and latest alert.
func (s *VaultService) Get(ctx context.Context, userID, id string) (*CredentialDetail, error) {
	cred, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *cred), nil
}

// List returns all of the user's credentials with decrypted passwords and
// their latest alerts, newest first.
func (s *VaultService) List(ctx context.Context, userID string) ([]CredentialDetail, error) {
	creds, err := s.credStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "list credentials", err)
	}

	details := make([]CredentialDetail, 0, len(creds))
	for _, cred := range creds {
		details = append(details, *s.detail(ctx, cred))
	}

	return details, nil
}

// Update applies a changeset. A password change re-encrypts, resets the
// age clock, clears any resolution, and forces a fresh breach evaluation;
// the Resolved flag sets or clears resolution without touching is_breached.
func (s *VaultService) Update(ctx context.Context, userID, id string, changes model.CredentialChanges) (*model.Credential, error) {
	cred, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	changes.Apply(cred)

	passwordChanged := false
	if changes.Password != nil {
		if *changes.Password == "" {
			return nil, apperr.E(apperr.KindValidation, "password cannot be empty")
		}
		encrypted, err := s.codec.Encode(*changes.Password)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindCodecFailure, "encrypt password", err)
		}
		cred.EncryptedPassword = encrypted
		cred.LastPasswordChange = now
		cred.PasswordExpiresAt = policy.Expiration(now)
		cred.IsResolved = false
		cred.ResolvedAt = nil
		passwordChanged = true
	}

	if changes.Resolved != nil {
		if *changes.Resolved {
			cred.IsResolved = true
			cred.ResolvedAt = &now
		} else {
			cred.IsResolved = false
			cred.ResolvedAt = nil
		}
	}

	cred.UpdatedAt = now
	if err := s.credStore.Update(ctx, *cred); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "update credential", err)
	}

	if passwordChanged {
		checked, err := s.breach.Evaluate(ctx, cred.ID)
		if err != nil {
			slog.Warn("post-update breach evaluation failed", "credential", cred.ID, "error", err)
			return cred, nil
		}
		return checked, nil
	}

	return cred, nil
}

// Delete removes the credential; its alerts cascade at the store layer.
func (s *VaultService) Delete(ctx context.Context, userID, id string) error {
	cred, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.credStore.Delete(ctx, cred.ID); err != nil {
		return apperr.Wrap(apperr.KindStore, "delete credential", err)
	}
	return nil
}

// Check re-evaluates a single credential on demand.
func (s *VaultService) Check(ctx context.Context, userID, id string) (*model.Credential, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.breach.Evaluate(ctx, id)
}

func (s *VaultService) getOwned(ctx context.Context, userID, id string) (*model.Credential, error) {
	cred, err := s.credStore.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "load credential", err)
	}
	if cred == nil || cred.UserID != userID {
		return nil, apperr.E(apperr.KindNotFound, "credential not found")
	}
	return cred, nil
}

func (s *VaultService) detail(ctx context.Context, cred model.Credential) *CredentialDetail {
	password, err := s.codec.Decode(cred.EncryptedPassword)
	if err != nil {
		slog.Warn("credential secret undecodable", "credential", cred.ID, "error", err)
		password = ""
	}

	latest, err := s.alertStore.LatestByCredential(ctx, cred.ID)
	if err != nil {
		slog.Error("load latest alert failed", "credential", cred.ID, "error", err)
		latest = nil
	}

	return &CredentialDetail{Credential: cred, Password: password, LatestAlert: latest}
}
