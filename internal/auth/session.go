package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/faceofmind/admin-sync/internal/cache"
	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/store"
)

// Persisted keys.
const (
	KeyAccess  = "access"
	KeyRefresh = "refresh"
	KeyTheme   = "theme"
)

// Errors
var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrInvalidTheme = errors.New("theme must be dark or light")
)

// Theme is the persisted display preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme converts a string to a Theme.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// Backend is the part of the admin API the session talks to.
type Backend interface {
	Login(ctx context.Context, email, password string) (model.Tokens, error)
	Logout(ctx context.Context, refresh string)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session holds the current tokens in memory, mirrored to the store.
type Session struct {
	store   store.Store
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	tokens model.Tokens
}

// NewSession loads any persisted tokens from s.
func NewSession(ctx context.Context, s store.Store, backend Backend, logger *slog.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sess := &Session{
		store:   s,
		backend: backend,
		logger:  logger.With("component", "session"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(sess)
	}

	access, err := getOptional(ctx, s, KeyAccess)
	if err != nil {
		return nil, fmt.Errorf("load access token: %w", err)
	}
	refresh, err := getOptional(ctx, s, KeyRefresh)
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	sess.tokens = model.Tokens{Access: access, Refresh: refresh}

	return sess, nil
}

func getOptional(ctx context.Context, s store.Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Login authenticates against the backend and persists the tokens.
func (s *Session) Login(ctx context.Context, email, password string) error {
	tokens, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, KeyAccess, tokens.Access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := s.store.Set(ctx, KeyRefresh, tokens.Refresh); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	s.logger.Info("logged in", "email", email)
	return nil
}

// Logout notifies the backend (best-effort), then removes the tokens and
// every cached analytics period. The theme is kept.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.tokens.Refresh
	s.tokens = model.Tokens{}
	s.mu.Unlock()

	if refresh != "" && s.backend != nil {
		s.backend.Logout(ctx, refresh)
	}

	keys := append([]string{KeyAccess, KeyRefresh}, cache.Keys()...)
	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.logger.Info("logged out")
	return nil
}

// AccessToken returns the current access token, or "".
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Access
}

// RefreshToken returns the current refresh token, or "".
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Refresh
}

// Expiry returns the access token's exp claim. ok is false for missing,
// opaque, or exp-less tokens.
func (s *Session) Expiry() (exp time.Time, ok bool) {
	token := s.AccessToken()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

// IsLoggedIn reports whether an access token is held and, if it carries an
// expiry, has not expired. Signatures are not verified here.
func (s *Session) IsLoggedIn() bool {
	if s.AccessToken() == "" {
		return false
	}
	if exp, ok := s.Expiry(); ok && !s.now().Before(exp) {
		return false
	}
	return true
}

// Theme returns the persisted theme, defaulting to light.
func (s *Session) Theme(ctx context.Context) (Theme, error) {
	v, err := getOptional(ctx, s.store, KeyTheme)
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	if v == "" {
		return ThemeLight, nil
	}
	t, err := ParseTheme(v)
	if err != nil {
		s.logger.Warn("ignoring stored theme", "value", v)
		return ThemeLight, nil
	}
	return t, nil
}

// SetTheme persists t.
func (s *Session) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyTheme, string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
