// Package auth produces valid bearer credentials for requested scope sets,
// reusing a cached credential while it is still usable and falling back to
// an interactive grant flow otherwise.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kuil09/youtube-subscriptions-backup/storage"
)

// ExpiryMargin is subtracted from a credential's expiry when judging
// validity, so a token is never handed out moments before it dies.
const ExpiryMargin = time.Minute

// AuthError describes a failed or misconfigured grant flow. Grant failures
// are almost always configuration errors (redirect URI / client ID
// mismatch); they are never retried automatically.
type AuthError struct {
	// Reason is a short human-readable cause.
	Reason string
	// Hint carries remediation guidance when one is known.
	Hint string
	// ClientID and RedirectURI are debug fields for configuration failures.
	ClientID    string
	RedirectURI string
	// Err is the underlying error, if any.
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Granter performs an interactive authorization flow for exactly the
// requested scopes and returns the resulting credential. The provider may
// grant more scopes than requested; implementations must report the scopes
// actually granted.
type Granter interface {
	Grant(ctx context.Context, scopes []string) (*storage.Credential, error)
}

// Manager is the token cache/acquirer. The credential store and granter are
// injected; there is no ambient singleton.
type Manager struct {
	store   storage.CredentialStore
	granter Granter
	log     zerolog.Logger
	now     func() time.Time

	// mu serializes grant flows so two callers cannot race two consent
	// screens for the same cache slot.
	mu sync.Mutex
}

// ManagerOption customizes Manager creation.
type ManagerOption func(*Manager)

// WithClock overrides the clock used for expiry checks (testing).
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a token manager over the given credential store and
// interactive granter.
func NewManager(store storage.CredentialStore, granter Granter, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		granter: granter,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Token returns a bearer token whose credential covers scopes. A cached
// credential is reused without any I/O when it is unexpired (with margin)
// and its granted scopes are a superset of the request; otherwise one
// interactive grant is attempted. A failed grant is returned as an
// AuthError and never retried here.
func (m *Manager) Token(ctx context.Context, scopes []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.store.Credential(ctx)
	if err == nil && m.usable(cred, scopes) {
		return cred.AccessToken, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	fresh, err := m.granter.Grant(ctx, scopes)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return "", err
		}
		return "", &AuthError{Reason: "grant failed", Err: err}
	}
	if fresh == nil || fresh.AccessToken == "" {
		return "", &AuthError{Reason: "grant returned no token"}
	}

	if err := m.store.PutCredential(ctx, fresh); err != nil {
		return "", fmt.Errorf("cache credential: %w", err)
	}
	m.log.Info().Strs("scopes", fresh.Scopes).Time("expiry", fresh.Expiry).Msg("credential acquired")
	return fresh.AccessToken, nil
}

// Invalidate drops the cached credential, forcing the next Token call
// through the grant flow.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.DeleteCredential(ctx)
}

func (m *Manager) usable(cred *storage.Credential, scopes []string) bool {
	if cred == nil || cred.AccessToken == "" {
		return false
	}
	if !cred.Expiry.Add(-ExpiryMargin).After(m.now()) {
		return false
	}
	return hasScopes(cred.Scopes, scopes)
}

// hasScopes reports whether every needed scope is present in current.
func hasScopes(current, needed []string) bool {
	for _, n := range needed {
		found := false
		for _, c := range current {
			if c == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MemoryStore is a process-lifetime credential store for deployments with
// no durable storage; the credential is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *storage.Credential
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Credential returns the cached credential, or storage.ErrNotFound.
func (s *MemoryStore) Credential(ctx context.Context) (*storage.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil, storage.ErrNotFound
	}
	cred := *s.cred
	return &cred, nil
}

// PutCredential replaces the cached credential.
func (s *MemoryStore) PutCredential(ctx context.Context, cred *storage.Credential) error {
	if cred == nil {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cred
	s.cred = &c
	return nil
}

// DeleteCredential drops the cached credential.
func (s *MemoryStore) DeleteCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}
