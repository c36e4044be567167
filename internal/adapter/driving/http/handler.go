package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/application"
	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/policy"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth    *application.AuthService
	vault   *application.VaultService
	monitor *application.MonitorService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	vault *application.VaultService,
	monitor *application.MonitorService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:    auth,
		vault:   vault,
		monitor: monitor,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. Routes under /api/v1/ require a
// session except for register, login, logout, and the health check; exact
// patterns take precedence over the protected prefix.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/v1/auth/change-password", h.ChangePassword)
	protected.HandleFunc("GET /api/v1/credentials", h.ListCredentials)
	protected.HandleFunc("POST /api/v1/credentials", h.CreateCredential)
	protected.HandleFunc("GET /api/v1/credentials/{id}", h.GetCredential)
	protected.HandleFunc("PUT /api/v1/credentials/{id}", h.UpdateCredential)
	protected.HandleFunc("DELETE /api/v1/credentials/{id}", h.DeleteCredential)
	protected.HandleFunc("POST /api/v1/credentials/{id}/check", h.CheckCredential)
	protected.HandleFunc("POST /api/v1/monitor", h.RunSweep)
	protected.HandleFunc("GET /api/v1/monitor", h.Stats)
	protected.HandleFunc("POST /api/v1/generate", h.GeneratePassword)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("/api/v1/", authMiddleware(h.auth, protected))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Register creates a new user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

// Login verifies credentials and issues a session. The token is returned in
// the body and mirrored into an HttpOnly cookie for browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: formatTime(session.ExpiresAt),
		User:      toUserResponse(*user),
	})
}

// Logout revokes whatever session the request presents and clears the
// cookie. Always succeeds, even without a session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), sessionToken(r)); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword replaces the account password after verifying the current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := userFrom(r.Context())
	if err := h.auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCredentials returns the user's credentials, newest first, with
// decrypted passwords and latest alerts.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	details, err := h.vault.List(r.Context(), user.ID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	now := time.Now().UTC()
	resp := make([]CredentialResponse, 0, len(details))
	for _, d := range details {
		resp = append(resp, toCredentialResponse(d, now))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateCredential stores a new vault entry and runs its initial breach check.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := userFrom(r.Context())
	cred, err := h.vault.Create(r.Context(), user.ID, application.CredentialInput{
		ServiceName: req.ServiceName,
		Username:    req.Username,
		URL:         req.URL,
		Notes:       req.Notes,
		Password:    req.Password,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	detail, err := h.vault.Get(r.Context(), user.ID, cred.ID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(*detail, time.Now().UTC()))
}

// GetCredential returns a single vault entry.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	detail, err := h.vault.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*detail, time.Now().UTC()))
}

// UpdateCredential applies a partial update to a vault entry.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	var req UpdateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := userFrom(r.Context())
	id := r.PathValue("id")

	_, err := h.vault.Update(r.Context(), user.ID, id, model.CredentialChanges{
		ServiceName: req.ServiceName,
		Username:    req.Username,
		URL:         req.URL,
		Notes:       req.Notes,
		Password:    req.Password,
		Resolved:    req.Resolved,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	detail, err := h.vault.Get(r.Context(), user.ID, id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*detail, time.Now().UTC()))
}

// DeleteCredential removes a vault entry and its alerts.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if err := h.vault.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckCredential re-runs the breach evaluation for one entry on demand.
func (h *Handler) CheckCredential(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id := r.PathValue("id")

	if _, err := h.vault.Check(r.Context(), user.ID, id); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	detail, err := h.vault.Get(r.Context(), user.ID, id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*detail, time.Now().UTC()))
}

// RunSweep re-evaluates all of the user's unresolved credentials.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	result, err := h.monitor.RunSweep(r.Context(), user.ID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SweepResponse{
		Checked:  result.Checked,
		Breached: result.Breached,
		Errors:   result.Errors,
	})
}

// Stats returns the user's credential counts.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	stats, err := h.monitor.Stats(r.Context(), user.ID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Total:    stats.Total,
		Breached: stats.Breached,
		Safe:     stats.Safe,
	})
}

// GeneratePassword produces a random password and scores it. An empty body
// uses the defaults; supplied fields override them.
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	opts := policy.DefaultGeneratorOptions()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Length > 0 {
		opts.Length = req.Length
	}
	if req.Uppercase != nil {
		opts.Uppercase = *req.Uppercase
	}
	if req.Lowercase != nil {
		opts.Lowercase = *req.Lowercase
	}
	if req.Digits != nil {
		opts.Digits = *req.Digits
	}
	if req.Symbols != nil {
		opts.Symbols = *req.Symbols
	}
	opts.ExcludeSimilar = req.ExcludeSimilar

	password, err := policy.Generate(opts)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	score, feedback := policy.Strength(password)
	writeJSON(w, http.StatusOK, GenerateResponse{
		Password: password,
		Score:    score,
		Feedback: feedback,
	})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeAppError maps an application error to its HTTP status. Anything
// without a recognized kind is logged and reported as a 500.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrAuth):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
