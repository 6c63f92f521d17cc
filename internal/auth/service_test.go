package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"placement-portal/internal/config"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (m *memUsers) GetUser(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *memUsers) CreateUser(ctx context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return errors.ErrUserExists
	}
	m.users[user.Email] = user
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]string
	ttls     map[string]time.Duration
}

func (m *memSessions) Create(ctx context.Context, token, email string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = email
	m.ttls[token] = ttl
	return nil
}

func (m *memSessions) Lookup(ctx context.Context, token string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.sessions[token]
	if !ok {
		return "", errors.ErrUnauthenticated
	}
	m.ttls[token] = ttl
	return email, nil
}

func (m *memSessions) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func newTestService() (*Service, *memSessions) {
	cfg := &config.Config{Auth: config.AuthConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}}
	sessions := &memSessions{sessions: map[string]string{}, ttls: map[string]time.Duration{}}
	users := &memUsers{users: map[string]model.User{}}
	return NewService(cfg, users, sessions), sessions
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	svc, sessions := newTestService()
	ctx := context.Background()

	if err := svc.CreateUser(ctx, " Alice@Example.com ", "correct horse"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sessions.ttls[token] != time.Hour {
		t.Fatalf("session ttl not set")
	}

	email, err := svc.CurrentUser(ctx, token)
	if err != nil || email != "alice@example.com" {
		t.Fatalf("current user = %q, %v", email, err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.CurrentUser(ctx, token); !stderrors.Is(err, errors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.CreateUser(ctx, "bob@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := svc.Login(ctx, "bob@example.com", "wrong-password"); !stderrors.Is(err, errors.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "hunter2hunter2"); !stderrors.Is(err, errors.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestCurrentUserEmptyToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	if _, err := svc.CurrentUser(context.Background(), ""); !stderrors.Is(err, errors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	ctx := context.Background()

	var verr errors.ValidationError
	if err := svc.CreateUser(ctx, "not-an-email", "longenough"); !stderrors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if err := svc.CreateUser(ctx, "carol@example.com", "short"); !stderrors.As(err, &verr) || verr.Field != "password" {
		t.Fatalf("expected password validation error, got %v", err)
	}
	if err := svc.CreateUser(ctx, "carol@example.com", "longenough"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := svc.CreateUser(ctx, "CAROL@example.com", "longenough"); !stderrors.Is(err, errors.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}
