// Package auth holds the logged-in user's session: the bearer token, the
// identity decoded from it and the login/logout operations. A *Session is
// passed explicitly to every component that needs the current user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/store"
)

var ErrNotAuthenticated = errors.New("not logged in")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Claims is the identity carried by the API's tokens.
type Claims struct {
	UserID   int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) User() model.User {
	return model.User{Id: c.UserID, Username: c.Username, Email: c.Email, Role: c.Role}
}

// DecodeToken reads the claims of a token without verifying its signature;
// the API remains the authority on validity.
func DecodeToken(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	if claims.UserID <= 0 {
		return Claims{}, errors.New("decode token: missing user id")
	}
	return claims, nil
}

// Authenticator is the part of the API the session talks to.
type Authenticator interface {
	Login(ctx context.Context, username string, password string) (string, error)
	Register(ctx context.Context, username string, email string, password string) error
}

// TokenStore persists the token between runs.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

type fileStore struct{}

func (fileStore) LoadToken() (string, error)   { return store.LoadToken() }
func (fileStore) SaveToken(token string) error { return store.SaveToken(token) }
func (fileStore) ClearToken() error            { return store.ClearToken() }

// FileStore keeps the token in the user's config directory.
func FileStore() TokenStore {
	return fileStore{}
}

type Session struct {
	mu      sync.RWMutex
	persist TokenStore
	token   string
	claims  Claims
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSession(persist TokenStore, opts ...Option) *Session {
	s := &Session{
		persist: persist,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads a previously persisted token. Undecodable or expired tokens
// are discarded and the session starts logged out.
func (s *Session) Restore() error {
	if s.persist == nil {
		return nil
	}
	token, err := s.persist.LoadToken()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	claims, err := DecodeToken(token)
	if err != nil || s.expired(claims) {
		s.logger.Info("discarding stored token", "err", err)
		return s.persist.ClearToken()
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()
	return nil
}

func (s *Session) Login(ctx context.Context, api Authenticator, username string, password string) (model.User, error) {
	token, err := api.Login(ctx, username, password)
	if err != nil {
		return model.User{}, err
	}
	claims, err := DecodeToken(token)
	if err != nil {
		return model.User{}, err
	}
	if s.expired(claims) {
		return model.User{}, service.ErrTokenExpired
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.SaveToken(token); err != nil {
			s.logger.Warn("could not persist token", "err", err)
		}
	}
	s.logger.Info("logged in", "user_id", claims.UserID, "username", claims.Username)
	return claims.User(), nil
}

// Register validates the sign-up form locally before creating the account.
func (s *Session) Register(ctx context.Context, api Authenticator, username string, email string, password string, confirm string) error {
	if err := ValidateRegistration(username, email, password, confirm); err != nil {
		return err
	}
	return api.Register(ctx, username, email, password)
}

func ValidateRegistration(username string, email string, password string, confirm string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return errors.New("username, email and password are required")
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return errors.New("email address is not valid")
	}
	return nil
}

func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.claims = Claims{}
	s.mu.Unlock()
	if s.persist == nil {
		return nil
	}
	return s.persist.ClearToken()
}

// Token implements service.TokenSource. An expired token is cleared and
// reported as service.ErrTokenExpired so no request carries it.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	token, claims := s.token, s.claims
	s.mu.RUnlock()

	if token == "" {
		return "", nil
	}
	if s.expired(claims) {
		if err := s.Logout(); err != nil {
			s.logger.Warn("could not clear expired token", "err", err)
		}
		return "", service.ErrTokenExpired
	}
	return token, nil
}

func (s *Session) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return model.User{}, false
	}
	return s.claims.User(), true
}

// ExpiresAt reports when the current token expires, if it says so.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return s.claims.ExpiresAt.Time, true
}

// RequireUser returns the logged-in user or the auth error a caller must
// turn into a login prompt.
func (s *Session) RequireUser() (model.User, error) {
	if _, err := s.Token(); err != nil {
		return model.User{}, err
	}
	user, ok := s.CurrentUser()
	if !ok {
		return model.User{}, ErrNotAuthenticated
	}
	return user, nil
}

func (s *Session) expired(claims Claims) bool {
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}
