package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/application"
	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/policy"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CredentialResponse is the JSON representation of a vault credential. The
// password field carries the decrypted secret; an undecodable secret reads
// as the empty string.
type CredentialResponse struct {
	ID          string `json:"id"`
	ServiceName string `json:"service_name"`
	Username    string `json:"username"`
	URL         string `json:"url"`
	Notes       string `json:"notes"`
	Password    string `json:"password"`

	IsBreached    bool     `json:"is_breached"`
	BreachDetails []string `json:"breach_details"`
	IsResolved    bool     `json:"is_resolved"`
	ResolvedAt    *string  `json:"resolved_at"`
	LastChecked   *string  `json:"last_checked"`

	Status             string `json:"status"`
	PasswordAgeDays    int    `json:"password_age_days"`
	DaysUntilExpiry    int    `json:"days_until_expiry"`
	LastPasswordChange string `json:"last_password_change"`
	PasswordExpiresAt  string `json:"password_expires_at"`

	LatestAlert *AlertResponse `json:"latest_alert,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AlertResponse is the JSON representation of a breach alert.
type AlertResponse struct {
	ID           string  `json:"id"`
	CredentialID string  `json:"credential_id"`
	BreachSource string  `json:"breach_source"`
	BreachDate   string  `json:"breach_date"`
	Notified     bool    `json:"notified"`
	NotifiedAt   *string `json:"notified_at"`
	CreatedAt    string  `json:"created_at"`
}

// UserResponse is the JSON representation of a user account.
type UserResponse struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	Name                  string `json:"name"`
	PasswordExpiresAt     string `json:"password_expires_at"`
	PasswordResetRequired bool   `json:"password_reset_required"`
}

// RegisterRequest is the JSON body for the register endpoint.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token alongside the user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ChangePasswordRequest is the JSON body for the change-password endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateCredentialRequest is the JSON body for the create endpoint.
type CreateCredentialRequest struct {
	ServiceName string `json:"service_name"`
	Username    string `json:"username"`
	URL         string `json:"url"`
	Notes       string `json:"notes"`
	Password    string `json:"password"`
}

// UpdateCredentialRequest is the JSON body for the update endpoint. Absent
// fields are left unchanged.
type UpdateCredentialRequest struct {
	ServiceName *string `json:"service_name"`
	Username    *string `json:"username"`
	URL         *string `json:"url"`
	Notes       *string `json:"notes"`
	Password    *string `json:"password"`
	Resolved    *bool   `json:"resolved"`
}

// SweepResponse is the JSON representation of a sweep outcome.
type SweepResponse struct {
	Checked  int `json:"checked"`
	Breached int `json:"breached"`
	Errors   int `json:"errors"`
}

// StatsResponse is the JSON representation of the monitoring counters.
type StatsResponse struct {
	Total    int `json:"total"`
	Breached int `json:"breached"`
	Safe     int `json:"safe"`
}

// GenerateRequest is the JSON body for the password generator endpoint.
// Class toggles default to true when absent.
type GenerateRequest struct {
	Length         int   `json:"length"`
	Uppercase      *bool `json:"uppercase"`
	Lowercase      *bool `json:"lowercase"`
	Digits         *bool `json:"digits"`
	Symbols        *bool `json:"symbols"`
	ExcludeSimilar bool  `json:"exclude_similar"`
}

// GenerateResponse carries a generated password and its strength.
type GenerateResponse struct {
	Password string `json:"password"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toCredentialResponse converts a credential detail to its JSON response
// representation, deriving display status and age from the policy rules.
func toCredentialResponse(d application.CredentialDetail, now time.Time) CredentialResponse {
	cred := d.Credential

	details := cred.BreachDetails
	if details == nil {
		details = []string{}
	}

	resp := CredentialResponse{
		ID:          cred.ID,
		ServiceName: cred.ServiceName,
		Username:    cred.Username,
		URL:         cred.URL,
		Notes:       cred.Notes,
		Password:    d.Password,

		IsBreached:    cred.IsBreached,
		BreachDetails: details,
		IsResolved:    cred.IsResolved,
		ResolvedAt:    formatTimePtr(cred.ResolvedAt),
		LastChecked:   formatTimePtr(cred.LastChecked),

		Status:             string(policy.Classify(cred, now)),
		PasswordAgeDays:    cred.PasswordAgeDays(now),
		DaysUntilExpiry:    policy.DaysUntilExpiry(cred.LastPasswordChange, now),
		LastPasswordChange: formatTime(cred.LastPasswordChange),
		PasswordExpiresAt:  formatTime(cred.PasswordExpiresAt),

		CreatedAt: formatTime(cred.CreatedAt),
		UpdatedAt: formatTime(cred.UpdatedAt),
	}

	if d.LatestAlert != nil {
		alert := toAlertResponse(*d.LatestAlert)
		resp.LatestAlert = &alert
	}

	return resp
}

// toAlertResponse converts a domain BreachAlert to its JSON representation.
func toAlertResponse(alert model.BreachAlert) AlertResponse {
	return AlertResponse{
		ID:           alert.ID,
		CredentialID: alert.CredentialID,
		BreachSource: alert.BreachSource,
		BreachDate:   formatTime(alert.BreachDate),
		Notified:     alert.Notified,
		NotifiedAt:   formatTimePtr(alert.NotifiedAt),
		CreatedAt:    formatTime(alert.CreatedAt),
	}
}

// toUserResponse converts a domain User to its JSON representation. The
// password hash never leaves the server.
func toUserResponse(user model.User) UserResponse {
	return UserResponse{
		ID:                    user.ID,
		Email:                 user.Email,
		Name:                  user.Name,
		PasswordExpiresAt:     formatTime(user.PasswordExpiresAt),
		PasswordResetRequired: user.PasswordResetRequired,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
