package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

// --- mock CredentialStore ---

type mockCredentialStore struct {
	mu           sync.Mutex
	creds        map[string]model.Credential
	failUpdateID string
	listErr      error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{creds: make(map[string]model.Credential)}
}

func (m *mockCredentialStore) Create(_ context.Context, cred model.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[cred.ID] = cred
	return nil
}

func (m *mockCredentialStore) GetByID(_ context.Context, id string) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.creds[id]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (m *mockCredentialStore) ListByUser(_ context.Context, userID string) ([]model.Credential, error) {
	return m.list(func(c model.Credential) bool { return c.UserID == userID })
}

func (m *mockCredentialStore) ListUnresolvedByUser(_ context.Context, userID string) ([]model.Credential, error) {
	return m.list(func(c model.Credential) bool { return c.UserID == userID && !c.IsResolved })
}

func (m *mockCredentialStore) ListUnresolved(_ context.Context) ([]model.Credential, error) {
	return m.list(func(c model.Credential) bool { return !c.IsResolved })
}

func (m *mockCredentialStore) list(keep func(model.Credential) bool) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []model.Credential{}
	for _, c := range m.creds {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCredentialStore) Update(_ context.Context, cred model.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cred.ID == m.failUpdateID {
		return fmt.Errorf("update failed for %s", cred.ID)
	}
	if _, ok := m.creds[cred.ID]; !ok {
		return fmt.Errorf("no such credential %s", cred.ID)
	}
	m.creds[cred.ID] = cred
	return nil
}

func (m *mockCredentialStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, id)
	return nil
}

func (m *mockCredentialStore) CountByUser(_ context.Context, userID string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total, breached int
	for _, c := range m.creds {
		if c.UserID != userID {
			continue
		}
		total++
		if c.IsBreached && !c.IsResolved {
			breached++
		}
	}
	return total, breached, nil
}

// --- mock AlertStore ---

type mockAlertStore struct {
	mu        sync.Mutex
	alerts    []model.BreachAlert
	createErr error
}

func (m *mockAlertStore) Create(_ context.Context, alert model.BreachAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockAlertStore) ListByCredential(_ context.Context, credentialID string) ([]model.BreachAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BreachAlert{}
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if m.alerts[i].CredentialID == credentialID {
			out = append(out, m.alerts[i])
		}
	}
	return out, nil
}

func (m *mockAlertStore) LatestByCredential(ctx context.Context, credentialID string) (*model.BreachAlert, error) {
	alerts, err := m.ListByCredential(ctx, credentialID)
	if err != nil || len(alerts) == 0 {
		return nil, err
	}
	return &alerts[0], nil
}

func (m *mockAlertStore) MarkNotified(_ context.Context, alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == alertID {
			m.alerts[i].Notified = true
		}
	}
	return nil
}

func (m *mockAlertStore) all() []model.BreachAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.BreachAlert(nil), m.alerts...)
}

// --- mock BreachOracle ---

type mockOracle struct {
	mu sync.Mutex

	passwordResult model.BreachResult
	passwordErr    error
	serviceResult  model.BreachResult
	serviceErr     error

	passwordCalls []string
	serviceCalls  []string
}

func (m *mockOracle) CheckPassword(_ context.Context, password string) (model.BreachResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwordCalls = append(m.passwordCalls, password)
	return m.passwordResult, m.passwordErr
}

func (m *mockOracle) CheckService(_ context.Context, serviceName string) (model.BreachResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serviceCalls = append(m.serviceCalls, serviceName)
	return m.serviceResult, m.serviceErr
}

func (m *mockOracle) passwordsChecked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.passwordCalls...)
}

// --- mock Notifier ---

type sentMail struct {
	Address string
	Subject string
	Body    string
}

type mockNotifier struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (m *mockNotifier) Send(_ context.Context, address, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{Address: address, Subject: subject, Body: body})
	return nil
}

func (m *mockNotifier) sentMails() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// --- mock UserStore ---

type mockUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]model.User)}
}

func (m *mockUserStore) Create(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s already exists", user.Email)
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) Update(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return fmt.Errorf("no such user %s", user.ID)
	}
	m.users[user.ID] = user
	return nil
}

// --- mock SessionStore ---

type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]model.Session)}
}

func (m *mockSessionStore) Create(_ context.Context, session model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.Token]; ok {
		return fmt.Errorf("duplicate token")
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *mockSessionStore) GetByToken(_ context.Context, token string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (m *mockSessionStore) DeleteByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, session := range m.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}
