package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-indieauth-server/identity"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testPassword = "correct horse"

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

type guardFixture struct {
	guard    *sessions.Guard
	repo     *sessions.InMemoryRepo
	clock    *clock
	operator *identity.Identity
	other    *identity.Identity
}

func newGuardFixture(t *testing.T, options ...sessions.GuardOption) *guardFixture {
	t.Helper()
	ctx := context.Background()

	hash, err := identity.HashPassword(testPassword)
	require.NoError(t, err)

	identities := identity.NewInMemoryRepo()
	operator := &identity.Identity{ProfileURL: "https://operator.example/", PasswordHash: hash}
	other := &identity.Identity{ProfileURL: "https://operator.example/other", PasswordHash: hash}
	require.NoError(t, identities.Upsert(ctx, operator))
	require.NoError(t, identities.Upsert(ctx, other))

	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := sessions.NewInMemoryRepo()
	options = append([]sessions.GuardOption{sessions.WithNowFunc(c.Now)}, options...)
	guard, err := sessions.NewGuard(repo, identities, []byte("test-secret"), options...)
	require.NoError(t, err)

	return &guardFixture{guard: guard, repo: repo, clock: c, operator: operator, other: other}
}

func TestNewGuard(t *testing.T) {
	_, err := sessions.NewGuard(nil, identity.NewInMemoryRepo(), nil)
	require.Error(t, err)
	_, err = sessions.NewGuard(sessions.NewInMemoryRepo(), nil, nil)
	require.Error(t, err)

	g, err := sessions.NewGuard(sessions.NewInMemoryRepo(), identity.NewInMemoryRepo(), nil)
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestGuard_PendingRequest(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t)

	_, err := f.guard.BindPendingRequest(ctx, "", f.operator.ID, "https://app.example", "xyz", "Q")
	require.Error(t, err)

	_, err = f.guard.Pending(ctx, "browser-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	bound, err := f.guard.BindPendingRequest(ctx, "browser-1", f.operator.ID, "https://app.example", "xyz", "Q")
	require.NoError(t, err)
	require.Equal(t, f.clock.now, bound.CreatedAt)

	pending, err := f.guard.Pending(ctx, "browser-1")
	require.NoError(t, err)
	require.Equal(t, bound, pending)

	// A second initiation from the same browser replaces the echo state.
	_, err = f.guard.BindPendingRequest(ctx, "browser-1", f.operator.ID, "https://other.example", "abc", "R")
	require.NoError(t, err)
	pending, err = f.guard.Pending(ctx, "browser-1")
	require.NoError(t, err)
	require.Equal(t, "https://other.example", pending.ClientID)
	require.Equal(t, "abc", pending.State)

	require.NoError(t, f.guard.ClearPending(ctx, "browser-1"))
	_, err = f.guard.Pending(ctx, "browser-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGuard_AuthenticateWithPassword(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t)

	tests := []struct {
		name     string
		creds    sessions.Credentials
		wantErr  error
		wantUser string
	}{
		{
			name:     "valid password",
			creds:    sessions.Credentials{ProfileURL: "https://operator.example/", Password: testPassword},
			wantUser: "https://operator.example/",
		},
		{
			name:     "path selects identity",
			creds:    sessions.Credentials{ProfileURL: "https://operator.example/other", Password: testPassword},
			wantUser: "https://operator.example/other",
		},
		{
			name:    "wrong password",
			creds:   sessions.Credentials{ProfileURL: "https://operator.example/", Password: "nope"},
			wantErr: apperrors.ErrInvalidPassword,
		},
		{
			name:    "unknown profile",
			creds:   sessions.Credentials{ProfileURL: "https://operator.example/missing", Password: testPassword},
			wantErr: apperrors.ErrInvalidUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, err := f.guard.Authenticate(ctx, tt.creds, nil, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantUser, ident.ProfileURL)
		})
	}
}

func TestGuard_ThrottlesPasswordAttempts(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t, sessions.WithLoginRate(rate.Every(time.Minute), 2))
	bad := sessions.Credentials{ProfileURL: "https://operator.example/", Password: "nope"}

	for i := 0; i < 2; i++ {
		_, err := f.guard.Authenticate(ctx, bad, nil, nil)
		require.ErrorIs(t, err, apperrors.ErrInvalidPassword)
	}
	_, err := f.guard.Authenticate(ctx, bad, nil, nil)
	require.ErrorIs(t, err, apperrors.ErrTooManyAttempts)

	// Other identities keep their own budget.
	_, err = f.guard.Authenticate(ctx, sessions.Credentials{ProfileURL: "https://operator.example/other", Password: testPassword}, nil, nil)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(time.Minute)
	_, err = f.guard.Authenticate(ctx, sessions.Credentials{ProfileURL: "https://operator.example/", Password: testPassword}, nil, nil)
	require.NoError(t, err)
}

func TestGuard_RememberedSession(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t)

	_, _, err := f.guard.StartSession(ctx, f.operator.ID, 0)
	require.Error(t, err)

	session, token, err := f.guard.StartSession(ctx, f.operator.ID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	t.Run("resume", func(t *testing.T) {
		resumed, err := f.guard.Resume(ctx, token)
		require.NoError(t, err)
		require.Equal(t, session.ID, resumed.ID)

		pending := &sessions.PendingAuthorization{SessionID: "browser-1", IdentityID: f.operator.ID}
		ident, err := f.guard.Authenticate(ctx, sessions.Credentials{}, resumed, pending)
		require.NoError(t, err)
		require.Equal(t, f.operator.ID, ident.ID)
	})

	t.Run("unusable tokens are ignored", func(t *testing.T) {
		for _, tok := range []string{"", "garbage", token + "x"} {
			resumed, err := f.guard.Resume(ctx, tok)
			require.NoError(t, err)
			require.Nil(t, resumed)
		}

		other, err := sessions.NewGuard(f.repo, identity.NewInMemoryRepo(), []byte("another-secret"))
		require.NoError(t, err)
		resumed, err := other.Resume(ctx, token)
		require.NoError(t, err)
		require.Nil(t, resumed)
	})

	t.Run("expired", func(t *testing.T) {
		_, shortToken, err := f.guard.StartSession(ctx, f.operator.ID, time.Minute)
		require.NoError(t, err)

		f.clock.now = f.clock.now.Add(2 * time.Minute)
		defer func() { f.clock.now = f.clock.now.Add(-2 * time.Minute) }()

		resumed, err := f.guard.Resume(ctx, shortToken)
		require.NoError(t, err)
		require.Nil(t, resumed)
	})

	t.Run("end session", func(t *testing.T) {
		require.NoError(t, f.guard.EndSession(ctx, token))
		require.NoError(t, f.guard.EndSession(ctx, "garbage"))

		resumed, err := f.guard.Resume(ctx, token)
		require.NoError(t, err)
		require.Nil(t, resumed)
	})
}

func TestGuard_DetectReplay(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t)

	session, _, err := f.guard.StartSession(ctx, f.operator.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, f.guard.DetectReplay(nil, &sessions.PendingAuthorization{IdentityID: f.other.ID}))
	require.NoError(t, f.guard.DetectReplay(session, nil))
	require.NoError(t, f.guard.DetectReplay(session, &sessions.PendingAuthorization{IdentityID: f.operator.ID}))

	pending := &sessions.PendingAuthorization{SessionID: "browser-1", IdentityID: f.other.ID}
	err = f.guard.DetectReplay(session, pending)
	require.ErrorIs(t, err, apperrors.ErrSessionReplayDetected)

	var replay *apperrors.SessionReplayError
	require.True(t, apperrors.As(err, &replay))
	require.Equal(t, f.operator.ID, replay.IdentityID)
	require.Equal(t, session.ID, replay.SessionID)

	_, err = f.guard.Authenticate(ctx, sessions.Credentials{}, session, pending)
	require.ErrorIs(t, err, apperrors.ErrSessionReplayDetected)
}

func TestGuard_ResumeDetectsForgedSession(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t)

	session, token, err := f.guard.StartSession(ctx, f.operator.ID, time.Hour)
	require.NoError(t, err)

	// The stored session now belongs to someone other than the token's subject.
	session.IdentityID = f.other.ID
	require.NoError(t, f.repo.Upsert(ctx, session))

	_, err = f.guard.Resume(ctx, token)
	require.ErrorIs(t, err, apperrors.ErrSessionReplayDetected)

	var replay *apperrors.SessionReplayError
	require.True(t, apperrors.As(err, &replay))
	require.Equal(t, f.other.ID, replay.IdentityID)
}

func TestGuard_RevokeAllFor(t *testing.T) {
	ctx := context.Background()
	f := newGuardFixture(t)

	_, tokenA, err := f.guard.StartSession(ctx, f.operator.ID, time.Hour)
	require.NoError(t, err)
	_, tokenB, err := f.guard.StartSession(ctx, f.operator.ID, time.Hour)
	require.NoError(t, err)
	_, otherToken, err := f.guard.StartSession(ctx, f.other.ID, time.Hour)
	require.NoError(t, err)
	_, err = f.guard.BindPendingRequest(ctx, "browser-1", f.operator.ID, "https://app.example", "xyz", "Q")
	require.NoError(t, err)

	count, err := f.guard.RevokeAllFor(ctx, f.operator.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	for _, tok := range []string{tokenA, tokenB} {
		resumed, err := f.guard.Resume(ctx, tok)
		require.NoError(t, err)
		require.Nil(t, resumed)
	}
	_, err = f.guard.Pending(ctx, "browser-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	resumed, err := f.guard.Resume(ctx, otherToken)
	require.NoError(t, err)
	require.NotNil(t, resumed)
}

func TestPendingAuthorization_Matches(t *testing.T) {
	pending := &sessions.PendingAuthorization{ClientID: "https://app.example", CodeChallenge: "Q"}

	require.True(t, pending.Matches("https://app.example", "Q"))
	require.False(t, pending.Matches("https://app.example", "R"))
	require.False(t, pending.Matches("https://app.example", ""))
	require.False(t, pending.Matches("https://other.example", "Q"))
}
