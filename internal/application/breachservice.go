// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
	"github.com/ericfisherdev/breachwatch/internal/secret"
)

// BreachService owns the breach evaluation lifecycle for a credential:
// oracle lookups, state transitions, alert creation, and notification.
// Alerts are edge-triggered; only a transition from clean to breached
// produces a new alert row.
type BreachService struct {
	credStore  driven.CredentialStore
	alertStore driven.AlertStore
	oracle     driven.BreachOracle
	notifier   driven.Notifier
	codec      *secret.Codec
	notifyAddr string

	// locks serializes evaluations per credential id so the
	// read-decide-write cycle never interleaves for the same record.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewBreachService creates a BreachService. notifier may be nil or
// notifyAddr empty; breach transitions are then logged but not mailed.
func NewBreachService(
	credStore driven.CredentialStore,
	alertStore driven.AlertStore,
	oracle driven.BreachOracle,
	notifier driven.Notifier,
	codec *secret.Codec,
	notifyAddr string,
) *BreachService {
	return &BreachService{
		credStore:  credStore,
		alertStore: alertStore,
		oracle:     oracle,
		notifier:   notifier,
		codec:      codec,
		notifyAddr: notifyAddr,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *BreachService) lockCredential(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// Evaluate re-checks one credential against the breach oracle and applies
// the resulting state transition. Oracle failures are absorbed as "not
// found" so an outage never marks a credential breached or fails the
// operation; only store failures are fatal.
func (s *BreachService) Evaluate(ctx context.Context, credentialID string) (*model.Credential, error) {
	lock := s.lockCredential(credentialID)
	lock.Lock()
	defer lock.Unlock()

	cred, err := s.credStore.GetByID(ctx, credentialID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "load credential", err)
	}
	if cred == nil {
		return nil, apperr.E(apperr.KindNotFound, "credential not found")
	}

	password, err := s.codec.Decode(cred.EncryptedPassword)
	if err != nil {
		slog.Warn("credential secret undecodable, password check skipped",
			"credential", cred.ID, "error", err)
		password = ""
	}

	now := time.Now().UTC()
	found := false
	var sources []string

	// An empty secret is never breached; only the service check runs.
	if password != "" {
		result, err := s.oracle.CheckPassword(ctx, password)
		if err != nil {
			slog.Warn("password breach check unavailable", "credential", cred.ID, "error", err)
		}
		if result.Found {
			found = true
			sources = append(sources, result.Sources...)
		}
	}

	result, err := s.oracle.CheckService(ctx, cred.ServiceName)
	if err != nil {
		slog.Warn("service breach check unavailable",
			"credential", cred.ID, "service", cred.ServiceName, "error", err)
	}
	if result.Found {
		found = true
		sources = append(sources, result.Sources...)
	}

	wasBreached := cred.IsBreached

	cred.IsBreached = found
	cred.BreachDetails = sources
	cred.LastChecked = &now
	cred.UpdatedAt = now

	switch {
	case found && !wasBreached:
		// Fresh breach: any earlier resolution is stale.
		cred.IsResolved = false
		cred.ResolvedAt = nil
	case !found && wasBreached:
		// Breach cleared: nothing left to resolve.
		cred.IsResolved = false
		cred.ResolvedAt = nil
	}
	// found && wasBreached keeps the resolution flags as they are; a
	// resolved credential that is still in the corpus stays silenced.
	// Likewise a clean result on a never-breached credential: resolution
	// set by hand is not the evaluator's to undo.

	if err := s.credStore.Update(ctx, *cred); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "store breach state", err)
	}

	if found && !wasBreached {
		s.raiseAlert(ctx, cred, sources, now)
	}

	return cred, nil
}

// raiseAlert records the clean-to-breached transition and attempts
// delivery. The alert row is written even when delivery fails; notified is
// set only on success.
func (s *BreachService) raiseAlert(ctx context.Context, cred *model.Credential, sources []string, now time.Time) {
	alert := model.BreachAlert{
		ID:           uuid.NewString(),
		CredentialID: cred.ID,
		BreachSource: strings.Join(sources, ", "),
		BreachDate:   now,
		CreatedAt:    now,
	}
	if err := s.alertStore.Create(ctx, alert); err != nil {
		slog.Error("create breach alert failed", "credential", cred.ID, "error", err)
		return
	}

	slog.Info("breach detected",
		"credential", cred.ID, "service", cred.ServiceName, "sources", len(sources))

	if s.notifier == nil || s.notifyAddr == "" {
		return
	}

	subject := fmt.Sprintf("Security alert: %s credential breached", cred.ServiceName)
	body := fmt.Sprintf(
		"Your credential for %s (username %s) was found in a known breach.\n\nDetails:\n%s\n\nChange this password as soon as possible.",
		cred.ServiceName, cred.Username, strings.Join(sources, "\n"),
	)

	if err := s.notifier.Send(ctx, s.notifyAddr, subject, body); err != nil {
		slog.Error("breach notification failed", "credential", cred.ID, "error", err)
		return
	}
	if err := s.alertStore.MarkNotified(ctx, alert.ID); err != nil {
		slog.Error("mark alert notified failed", "alert", alert.ID, "error", err)
	}
}
