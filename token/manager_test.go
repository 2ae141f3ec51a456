package token_test

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/token"
	"github.com/stretchr/testify/require"
)

const (
	testIdentityID = "identity-1"
	testClientID   = "https://app.example"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func newManager(t *testing.T, c *clock, lifetime time.Duration) (*token.Manager, *token.InMemoryRepo) {
	t.Helper()
	repo := token.NewInMemoryRepo()
	m, err := token.New(repo, token.WithLifetime(lifetime), token.WithNowFunc(c.Now))
	require.NoError(t, err)
	return m, repo
}

func TestNew(t *testing.T) {
	_, err := token.New(nil)
	require.Error(t, err)

	m, err := token.New(token.NewInMemoryRepo())
	require.NoError(t, err)
	require.Equal(t, token.DefaultLifetime, m.Lifetime())
	require.Equal(t, int64(token.DefaultLifetime.Seconds()), m.ExpiresIn())
}

func TestManager_Issue(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m, _ := newManager(t, c, time.Hour)

	t.Run("empty scope is rejected", func(t *testing.T) {
		for _, scope := range []string{"", "   "} {
			_, err := m.Issue(ctx, testIdentityID, scope, testClientID)
			require.ErrorIs(t, err, apperrors.ErrInvalidGrant)
			require.EqualError(t, err, "missing scope")
		}
	})

	t.Run("tokens are unique and findable", func(t *testing.T) {
		first, err := m.Issue(ctx, testIdentityID, "create", testClientID)
		require.NoError(t, err)
		second, err := m.Issue(ctx, testIdentityID, "create", testClientID)
		require.NoError(t, err)

		require.Len(t, first.AuthToken, 64)
		require.NotEqual(t, first.AuthToken, second.AuthToken)
		require.Equal(t, c.now, first.IssuedAt)

		found, err := m.FindByToken(ctx, first.AuthToken)
		require.NoError(t, err)
		require.Equal(t, first, found)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := m.FindByToken(ctx, "nope")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestManager_VerifyExpiry(t *testing.T) {
	ctx := context.Background()
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &clock{now: issuedAt}
	m, _ := newManager(t, c, time.Hour)

	tok, err := m.Issue(ctx, testIdentityID, "profile create", testClientID)
	require.NoError(t, err)

	c.now = issuedAt.Add(time.Hour)
	verified, err := m.Verify(ctx, tok.AuthToken)
	require.NoError(t, err, "valid up to and including the expiry instant")
	require.Equal(t, "profile create", verified.Scope)

	c.now = issuedAt.Add(time.Hour + time.Second)
	_, err = m.Verify(ctx, tok.AuthToken)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, err = m.Verify(ctx, tok.AuthToken)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = m.Verify(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestManager_Revocation(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Now()}
	m, _ := newManager(t, c, time.Hour)

	a1, err := m.Issue(ctx, testIdentityID, "create", testClientID)
	require.NoError(t, err)
	a2, err := m.Issue(ctx, testIdentityID, "update", "https://other.example")
	require.NoError(t, err)
	b, err := m.Issue(ctx, "identity-2", "create", testClientID)
	require.NoError(t, err)

	t.Run("single revoke is idempotent", func(t *testing.T) {
		require.NoError(t, m.Revoke(ctx, a2.AuthToken))
		require.NoError(t, m.Revoke(ctx, a2.AuthToken))
		_, err := m.Verify(ctx, a2.AuthToken)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("revoke all for identity", func(t *testing.T) {
		count, err := m.RevokeAllFor(ctx, testIdentityID)
		require.NoError(t, err)
		require.Equal(t, 1, count)

		_, err = m.Verify(ctx, a1.AuthToken)
		require.ErrorIs(t, err, apperrors.ErrNotFound)

		_, err = m.Verify(ctx, b.AuthToken)
		require.NoError(t, err)

		count, err = m.RevokeAllFor(ctx, testIdentityID)
		require.NoError(t, err)
		require.Zero(t, count)
	})
}
