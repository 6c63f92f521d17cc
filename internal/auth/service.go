package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"placement-portal/internal/config"
	"placement-portal/internal/logger"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserStore is the account part of the record store.
type UserStore interface {
	GetUser(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user model.User) error
}

// Service is the portal's auth provider: email/password login backed by
// bcrypt hashes, and opaque session tokens.
type Service struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	cost     int
	log      zerolog.Logger
}

func NewService(cfg *config.Config, users UserStore, sessions SessionStore) *Service {
	cost := cfg.Auth.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		sessions: sessions,
		ttl:      cfg.Auth.SessionTTL,
		cost:     cost,
		log:      logger.Component("auth"),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the password and opens a session, returning its token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUser(ctx, email)
	if stderrors.Is(err, sql.ErrNoRows) {
		s.log.Info().Str("email", email).Msg("Login for unknown user")
		return "", errors.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info().Str("email", email).Msg("Login with wrong password")
		return "", errors.ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.Create(ctx, token, user.Email, s.ttl); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	s.log.Info().Str("email", user.Email).Msg("User logged in")
	return token, nil
}

func (s *Service) CurrentUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.ErrUnauthenticated
	}
	return s.sessions.Lookup(ctx, token, s.ttl)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return errors.ValidationError{Field: "email", Value: email, Message: "must be an email address"}
	}
	if len(password) < minPasswordLength {
		return errors.ValidationError{Field: "password", Value: "***", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.CreateUser(ctx, model.User{Email: email, PasswordHash: string(hash)}); err != nil {
		return err
	}

	s.log.Info().Str("email", email).Msg("User created")
	return nil
}
