package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
)

// SweepResult aggregates the outcome of one monitoring sweep. Checked
// counts attempted items, including ones whose evaluation failed.
type SweepResult struct {
	Checked  int
	Breached int
	Errors   int
}

// VaultStats summarizes a user's credential posture for the dashboard.
type VaultStats struct {
	Total    int
	Breached int
	Safe     int
}

// MonitorService orchestrates breach sweeps: on-demand per user, and
// periodically across all users. Items are evaluated sequentially with a
// fixed delay so the oracle is never hammered; one bad item never stops
// the rest of the sweep.
type MonitorService struct {
	credStore driven.CredentialStore
	breach    *BreachService
	auth      *AuthService
	interval  time.Duration
	delay     time.Duration
}

// NewMonitorService creates a MonitorService. interval drives the periodic
// loop (0 disables it); delay is the pause between consecutive items.
func NewMonitorService(
	credStore driven.CredentialStore,
	breach *BreachService,
	auth *AuthService,
	interval time.Duration,
	delay time.Duration,
) *MonitorService {
	return &MonitorService{
		credStore: credStore,
		breach:    breach,
		auth:      auth,
		interval:  interval,
		delay:     delay,
	}
}

// RunSweep re-evaluates the user's unresolved credentials and returns the
// aggregate counts. Cancellation stops the sweep between items; the partial
// result is returned with the context error.
func (s *MonitorService) RunSweep(ctx context.Context, userID string) (SweepResult, error) {
	creds, err := s.credStore.ListUnresolvedByUser(ctx, userID)
	if err != nil {
		return SweepResult{}, apperr.Wrap(apperr.KindStore, "list credentials", err)
	}
	return s.sweep(ctx, creds)
}

// Stats returns the user's credential counts for the monitoring endpoint.
func (s *MonitorService) Stats(ctx context.Context, userID string) (VaultStats, error) {
	total, breached, err := s.credStore.CountByUser(ctx, userID)
	if err != nil {
		return VaultStats{}, apperr.Wrap(apperr.KindStore, "count credentials", err)
	}
	return VaultStats{Total: total, Breached: breached, Safe: total - breached}, nil
}

// Start runs the periodic monitoring loop: an immediate cycle, then one per
// interval. Each cycle purges expired sessions and sweeps every unresolved
// credential. Start blocks until the context is canceled.
func (s *MonitorService) Start(ctx context.Context) {
	if s.interval <= 0 {
		slog.Info("periodic monitoring disabled")
		return
	}

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor service stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *MonitorService) runCycle(ctx context.Context) {
	if n, err := s.auth.PurgeExpired(ctx); err != nil {
		slog.Error("session purge failed", "error", err)
	} else if n > 0 {
		slog.Info("expired sessions purged", "count", n)
	}

	creds, err := s.credStore.ListUnresolved(ctx)
	if err != nil {
		slog.Error("monitor cycle failed", "error", err)
		return
	}

	if _, err := s.sweep(ctx, creds); err != nil {
		slog.Info("monitor cycle interrupted", "error", err)
	}
}

// sweep walks the batch sequentially. Every item is attempted regardless of
// earlier failures; the delay separates consecutive oracle calls.
func (s *MonitorService) sweep(ctx context.Context, creds []model.Credential) (SweepResult, error) {
	start := time.Now()
	var result SweepResult

	for i, cred := range creds {
		if i > 0 && s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result.Checked++
		updated, err := s.breach.Evaluate(ctx, cred.ID)
		if err != nil {
			slog.Error("credential evaluation failed", "credential", cred.ID, "error", err)
			result.Errors++
			continue
		}
		if updated.IsBreached {
			result.Breached++
		}
	}

	slog.Info("sweep complete",
		"checked", result.Checked,
		"breached", result.Breached,
		"errors", result.Errors,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return result, nil
}
