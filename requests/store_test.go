package requests_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/jrsteele09/go-indieauth-server/scopes"
	"github.com/stretchr/testify/require"
)

const (
	testIdentityID  = "identity-1"
	testClientID    = "https://app.example"
	testRedirectURI = "https://app.example/cb"
)

func newStore(t *testing.T, options ...requests.StoreOption) *requests.Store {
	t.Helper()
	store, err := requests.NewStore(requests.NewInMemoryRepo(), options...)
	require.NoError(t, err)
	return store
}

func TestNewStore_RequiresRepo(t *testing.T) {
	_, err := requests.NewStore(nil)
	require.Error(t, err)
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newStore(t, requests.WithNowFunc(func() time.Time { return now }))

	req, err := store.Create(ctx, testIdentityID, testClientID, testRedirectURI, "profile  email", "challenge")
	require.NoError(t, err)
	require.Len(t, req.Code, 2*requests.MinCodeLength)
	require.Equal(t, "profile email", req.Scope)
	require.Equal(t, now, req.CreatedAt)
	require.Equal(t, "challenge", req.CodeChallenge)

	found, err := store.FindByCode(ctx, req.Code)
	require.NoError(t, err)
	require.Equal(t, req, found)
}

func TestStore_CodeLengthIsNeverBelowMinimum(t *testing.T) {
	store := newStore(t, requests.WithCodeLength(4))
	req, err := store.Create(context.Background(), testIdentityID, testClientID, testRedirectURI, "", "")
	require.NoError(t, err)
	require.Len(t, req.Code, 2*requests.MinCodeLength)

	longer := newStore(t, requests.WithCodeLength(32))
	req, err = longer.Create(context.Background(), testIdentityID, testClientID, testRedirectURI, "", "")
	require.NoError(t, err)
	require.Len(t, req.Code, 64)
}

func TestStore_OneLiveRequestPerPair(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first, err := store.Create(ctx, testIdentityID, testClientID, testRedirectURI, "profile", "")
	require.NoError(t, err)
	other, err := store.Create(ctx, testIdentityID, "https://other.example", "https://other.example/cb", "", "")
	require.NoError(t, err)
	second, err := store.Create(ctx, testIdentityID, testClientID, testRedirectURI, "email", "")
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)

	_, err = store.FindByCode(ctx, first.Code)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	live, err := store.FindByClientAndIdentity(ctx, testClientID, testIdentityID)
	require.NoError(t, err)
	require.Equal(t, second.Code, live.Code)

	// Requests for other clients are untouched.
	_, err = store.FindByCode(ctx, other.Code)
	require.NoError(t, err)

	_, err = store.Redeem(ctx, first.Code)
	require.ErrorIs(t, err, apperrors.ErrInvalidGrant)
}

func TestStore_UpdateScope(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	req, err := store.Create(ctx, testIdentityID, testClientID, testRedirectURI, "profile email", "")
	require.NoError(t, err)

	t.Run("narrowing is persisted", func(t *testing.T) {
		require.NoError(t, store.UpdateScope(ctx, req, scopes.Set{"profile"}))
		require.Equal(t, "profile", req.Scope)

		found, err := store.FindByCode(ctx, req.Code)
		require.NoError(t, err)
		require.Equal(t, "profile", found.Scope)
	})

	t.Run("widening is rejected", func(t *testing.T) {
		require.Error(t, store.UpdateScope(ctx, req, scopes.Set{"profile", "email"}))
		found, err := store.FindByCode(ctx, req.Code)
		require.NoError(t, err)
		require.Equal(t, "profile", found.Scope)
	})

	t.Run("redeemed codes are not recreated", func(t *testing.T) {
		_, err := store.Redeem(ctx, req.Code)
		require.NoError(t, err)
		require.ErrorIs(t, store.UpdateScope(ctx, req, scopes.Set{}), apperrors.ErrNotFound)
		_, err = store.FindByCode(ctx, req.Code)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestStore_RedeemIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	req, err := store.Create(ctx, testIdentityID, testClientID, testRedirectURI, "profile", "")
	require.NoError(t, err)

	redeemed, err := store.Redeem(ctx, req.Code)
	require.NoError(t, err)
	require.Equal(t, req.Code, redeemed.Code)

	_, err = store.Redeem(ctx, req.Code)
	require.ErrorIs(t, err, apperrors.ErrInvalidGrant)
	require.EqualError(t, err, "code not found")

	_, err = store.FindByClientAndIdentity(ctx, testClientID, testIdentityID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = store.Redeem(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidGrant)
}

func TestStore_ConcurrentRedeem(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	req, err := store.Create(ctx, testIdentityID, testClientID, testRedirectURI, "profile", "")
	require.NoError(t, err)

	const attempts = 32
	var successes, failures atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := store.Redeem(ctx, req.Code); err != nil {
				if apperrors.Is(err, apperrors.ErrInvalidGrant) {
					failures.Add(1)
				}
				return
			}
			successes.Add(1)
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), successes.Load())
	require.Equal(t, int32(attempts-1), failures.Load())
}

func TestAuthorizationRequest_Expired(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	req := &requests.AuthorizationRequest{CreatedAt: created}

	require.False(t, req.Expired(created.Add(requests.DefaultCodeTTL), requests.DefaultCodeTTL))
	require.True(t, req.Expired(created.Add(requests.DefaultCodeTTL+time.Second), requests.DefaultCodeTTL))
}
