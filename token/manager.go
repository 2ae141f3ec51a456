package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/pkg/errors"
)

const (
	// DefaultLifetime applies when no lifetime is configured.
	DefaultLifetime = 4 * 7 * 24 * time.Hour
	tokenLength     = 32 // 256 bits
)

// Manager issues, verifies and revokes access tokens.
type Manager struct {
	repo     Repo
	lifetime time.Duration
	nowFunc  func() time.Time
}

type ManagerOption func(*Manager)

// WithLifetime sets how long issued tokens remain valid.
func WithLifetime(lifetime time.Duration) ManagerOption {
	return func(m *Manager) {
		m.lifetime = lifetime
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// New creates a Manager over repo.
func New(repo Repo, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[token.New] repo is required")
	}
	m := &Manager{
		repo:    repo,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.lifetime <= 0 {
		m.lifetime = DefaultLifetime
	}
	return m, nil
}

// Lifetime is the configured token lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// ExpiresIn is the lifetime in whole seconds, as reported to clients.
func (m *Manager) ExpiresIn() int64 {
	return int64(m.lifetime.Seconds())
}

// Issue mints a token for identityID and clientID. Tokens are never issued
// for an empty scope.
func (m *Manager) Issue(ctx context.Context, identityID, scope, clientID string) (*AccessToken, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, apperrors.InvalidGrant("missing scope")
	}

	authToken, err := generateToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] generateToken")
	}

	token := &AccessToken{
		AuthToken:  authToken,
		IdentityID: identityID,
		ClientID:   clientID,
		Scope:      scope,
		IssuedAt:   m.nowFunc(),
	}
	if err := m.repo.Create(ctx, token); err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] repo.Create")
	}
	return token, nil
}

func (m *Manager) FindByToken(ctx context.Context, authToken string) (*AccessToken, error) {
	token, err := m.repo.Get(ctx, authToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.FindByToken]")
	}
	return token, nil
}

// Verify returns the token record while it is valid. An expired token is
// deleted and reported as ErrTokenExpired; later calls see ErrNotFound.
func (m *Manager) Verify(ctx context.Context, authToken string) (*AccessToken, error) {
	if strings.TrimSpace(authToken) == "" {
		return nil, apperrors.ErrNotFound
	}
	token, err := m.repo.Get(ctx, authToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Verify] repo.Get")
	}
	if token.Expired(m.nowFunc(), m.lifetime) {
		if err := m.repo.Delete(ctx, authToken); err != nil {
			return nil, errors.Wrap(err, "[Manager.Verify] repo.Delete")
		}
		return nil, apperrors.ErrTokenExpired
	}
	return token, nil
}

// Revoke deletes a single token. Unknown tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, authToken string) error {
	if err := m.repo.Delete(ctx, authToken); err != nil {
		return errors.Wrap(err, "[Manager.Revoke] repo.Delete")
	}
	return nil
}

// RevokeAllFor deletes every token held by identityID.
func (m *Manager) RevokeAllFor(ctx context.Context, identityID string) (int, error) {
	count, err := m.repo.DeleteByIdentity(ctx, identityID)
	if err != nil {
		return 0, errors.Wrap(err, "[Manager.RevokeAllFor] repo.DeleteByIdentity")
	}
	return count, nil
}

func generateToken() (string, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "rand.Read")
	}
	return hex.EncodeToString(tokenBytes), nil
}
