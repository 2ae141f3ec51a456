package pgstore_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/jrsteele09/go-indieauth-server/storage/pgstore"
	"github.com/jrsteele09/go-indieauth-server/token"
	"github.com/stretchr/testify/require"
)

const dsnEnv = "INDIEAUTH_TEST_POSTGRES_DSN"

func newTestStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}
	store, err := pgstore.New(context.Background(), pgstore.Config{DSN: dsn, AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew_RequiresDSN(t *testing.T) {
	_, err := pgstore.New(context.Background(), pgstore.Config{})
	require.Error(t, err)
}

func TestRequestRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Requests()

	identityID := uuid.NewString()
	clientID := "https://app.example/" + uuid.NewString()
	newRequest := func(code string) *requests.AuthorizationRequest {
		return &requests.AuthorizationRequest{
			Code:          code,
			ClientID:      clientID,
			RedirectURI:   clientID + "/cb",
			Scope:         "profile email",
			IdentityID:    identityID,
			CodeChallenge: "Q",
			CreatedAt:     time.Now().UTC().Truncate(time.Second),
		}
	}

	first := newRequest(uuid.NewString())
	require.NoError(t, repo.Replace(ctx, first))
	got, err := repo.GetByCode(ctx, first.Code)
	require.NoError(t, err)
	require.Equal(t, first, got)

	second := newRequest(uuid.NewString())
	require.NoError(t, repo.Replace(ctx, second))
	_, err = repo.GetByCode(ctx, first.Code)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	live, err := repo.GetByClientAndIdentity(ctx, clientID, identityID)
	require.NoError(t, err)
	require.Equal(t, second.Code, live.Code)

	require.NoError(t, repo.UpdateScope(ctx, second.Code, "profile"))

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if taken, err := repo.Take(ctx, second.Code); err == nil && taken.Scope == "profile" {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, successes.Load())

	require.ErrorIs(t, repo.UpdateScope(ctx, second.Code, "profile"), apperrors.ErrNotFound)
	_, err = repo.GetByClientAndIdentity(ctx, clientID, identityID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTokenRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Tokens()

	identityID := uuid.NewString()
	issued := time.Now().UTC().Truncate(time.Second)
	a := &token.AccessToken{AuthToken: uuid.NewString(), IdentityID: identityID, ClientID: "https://app.example", Scope: "create", IssuedAt: issued}
	b := &token.AccessToken{AuthToken: uuid.NewString(), IdentityID: identityID, ClientID: "https://app.example", Scope: "update", IssuedAt: issued}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.Error(t, repo.Create(ctx, a))

	got, err := repo.Get(ctx, a.AuthToken)
	require.NoError(t, err)
	require.Equal(t, a, got)

	require.NoError(t, repo.Delete(ctx, b.AuthToken))
	require.NoError(t, repo.Delete(ctx, b.AuthToken))

	count, err := repo.DeleteByIdentity(ctx, identityID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	_, err = repo.Get(ctx, a.AuthToken)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Sessions()

	identityID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	session := &sessions.Session{ID: uuid.NewString(), IdentityID: identityID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Upsert(ctx, session))

	session.ExpiresAt = now.Add(2 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, session))
	got, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, session, got)

	pending := &sessions.PendingAuthorization{SessionID: uuid.NewString(), IdentityID: identityID, ClientID: "https://app.example", State: "xyz", CreatedAt: now}
	require.NoError(t, repo.UpsertPending(ctx, pending))
	gotPending, err := repo.GetPending(ctx, pending.SessionID)
	require.NoError(t, err)
	require.Equal(t, pending, gotPending)

	count, err := repo.DeleteByIdentity(ctx, identityID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	_, err = repo.Get(ctx, session.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.GetPending(ctx, pending.SessionID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, session.ID))
	require.NoError(t, repo.DeletePending(ctx, pending.SessionID))
}
