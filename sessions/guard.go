package sessions

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/identity"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultLoginRate allows one password attempt per identity every six
	// seconds once the burst is spent.
	DefaultLoginRate  = rate.Limit(1.0 / 6)
	DefaultLoginBurst = 5
	secretLength      = 32
)

// Credentials are what the password form submits.
type Credentials struct {
	ProfileURL string
	Password   string
}

// Guard binds signed-in identities to pending authorization requests and
// detects sessions that are replayed across identities.
type Guard struct {
	repo       Repo
	identities identity.Repo
	signer     *rememberSigner
	logger     zerolog.Logger
	nowFunc    func() time.Time
	loginRate  rate.Limit
	loginBurst int

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

type GuardOption func(*Guard)

func WithLogger(logger zerolog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithNowFunc(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.nowFunc = now
	}
}

// WithLoginRate throttles password attempts per identity. A non-positive
// limit disables throttling.
func WithLoginRate(limit rate.Limit, burst int) GuardOption {
	return func(g *Guard) {
		if limit <= 0 {
			limit = rate.Inf
		}
		if burst < 1 {
			burst = 1
		}
		g.loginRate = limit
		g.loginBurst = burst
	}
}

// NewGuard creates a Guard. secret signs remember-me tokens; when empty a
// random one is generated, so remembered sessions do not survive a restart.
func NewGuard(repo Repo, identities identity.Repo, secret []byte, options ...GuardOption) (*Guard, error) {
	if repo == nil {
		return nil, errors.New("[sessions.NewGuard] repo is required")
	}
	if identities == nil {
		return nil, errors.New("[sessions.NewGuard] identity repo is required")
	}
	if len(secret) == 0 {
		secret = make([]byte, secretLength)
		if _, err := rand.Read(secret); err != nil {
			return nil, errors.Wrap(err, "[sessions.NewGuard] rand.Read")
		}
	}

	g := &Guard{
		repo:       repo,
		identities: identities,
		logger:     zerolog.Nop(),
		nowFunc:    time.Now,
		loginRate:  DefaultLoginRate,
		loginBurst: DefaultLoginBurst,
		limiters:   make(map[string]*rate.Limiter),
	}
	for _, opt := range options {
		opt(g)
	}
	g.signer = &rememberSigner{secret: secret, nowFunc: g.nowFunc}
	return g, nil
}

// BindPendingRequest records the echo state of a new authorization request
// against the browser session that started it.
func (g *Guard) BindPendingRequest(ctx context.Context, sessionID, identityID, clientID, state, codeChallenge string) (*PendingAuthorization, error) {
	if sessionID == "" {
		return nil, errors.New("[Guard.BindPendingRequest] session ID is required")
	}
	pending := &PendingAuthorization{
		SessionID:     sessionID,
		IdentityID:    identityID,
		ClientID:      clientID,
		State:         state,
		CodeChallenge: codeChallenge,
		CreatedAt:     g.nowFunc(),
	}
	if err := g.repo.UpsertPending(ctx, pending); err != nil {
		return nil, errors.Wrap(err, "[Guard.BindPendingRequest] repo.UpsertPending")
	}
	return pending, nil
}

// Pending returns the pending context of a browser session.
func (g *Guard) Pending(ctx context.Context, sessionID string) (*PendingAuthorization, error) {
	if sessionID == "" {
		return nil, apperrors.ErrNotFound
	}
	pending, err := g.repo.GetPending(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "[Guard.Pending] repo.GetPending")
	}
	return pending, nil
}

// ClearPending drops the pending context once its request is authorized.
func (g *Guard) ClearPending(ctx context.Context, sessionID string) error {
	if err := g.repo.DeletePending(ctx, sessionID); err != nil {
		return errors.Wrap(err, "[Guard.ClearPending] repo.DeletePending")
	}
	return nil
}

// Resume returns the signed-in session referenced by a remember-me token,
// or nil when there is none. A validly signed token naming a different
// identity than its stored session is a forged session.
func (g *Guard) Resume(ctx context.Context, rememberToken string) (*Session, error) {
	if strings.TrimSpace(rememberToken) == "" {
		return nil, nil
	}
	claims, err := g.signer.parse(rememberToken)
	if err != nil {
		g.logger.Debug().Err(err).Msg("ignoring unusable remember token")
		return nil, nil
	}

	session, err := g.repo.Get(ctx, claims.SessionID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Guard.Resume] repo.Get")
	}
	if session.IdentityID != claims.IdentityID {
		return nil, &apperrors.SessionReplayError{IdentityID: session.IdentityID, SessionID: session.ID}
	}
	if session.Expired(g.nowFunc()) {
		if err := g.repo.Delete(ctx, session.ID); err != nil {
			return nil, errors.Wrap(err, "[Guard.Resume] repo.Delete")
		}
		return nil, nil
	}
	return session, nil
}

// Authenticate resolves the identity approving a pending request. A resumed
// session is trusted after replay detection; otherwise the identity is
// looked up by profile path and the password checked.
func (g *Guard) Authenticate(ctx context.Context, creds Credentials, session *Session, pending *PendingAuthorization) (*identity.Identity, error) {
	if session != nil {
		if err := g.DetectReplay(session, pending); err != nil {
			return nil, err
		}
		ident, err := g.identities.GetByID(ctx, session.IdentityID)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidUser
		}
		if err != nil {
			return nil, errors.Wrap(err, "[Guard.Authenticate] identities.GetByID")
		}
		return ident, nil
	}

	ident, err := g.identities.GetByProfilePath(ctx, identity.ProfilePath(creds.ProfileURL))
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidUser
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Guard.Authenticate] identities.GetByProfilePath")
	}

	if !g.limiter(ident.ID).AllowN(g.nowFunc(), 1) {
		g.logger.Warn().Str("identity_id", ident.ID).Msg("password attempts throttled")
		return nil, apperrors.ErrTooManyAttempts
	}
	if !ident.CheckPassword(creds.Password) {
		return nil, apperrors.ErrInvalidPassword
	}
	return ident, nil
}

// DetectReplay reports a SessionReplayError when a signed-in session is
// used to approve a request created for another identity.
func (g *Guard) DetectReplay(session *Session, pending *PendingAuthorization) error {
	if session == nil || pending == nil || pending.IdentityID == "" {
		return nil
	}
	if session.IdentityID != pending.IdentityID {
		return &apperrors.SessionReplayError{IdentityID: session.IdentityID, SessionID: session.ID}
	}
	return nil
}

// StartSession creates a remembered session and returns its signed token.
func (g *Guard) StartSession(ctx context.Context, identityID string, lifetime time.Duration) (*Session, string, error) {
	if lifetime <= 0 {
		return nil, "", errors.New("[Guard.StartSession] lifetime must be positive")
	}
	now := g.nowFunc()
	session := &Session{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(lifetime),
	}
	if err := g.repo.Upsert(ctx, session); err != nil {
		return nil, "", errors.Wrap(err, "[Guard.StartSession] repo.Upsert")
	}
	token, err := g.signer.sign(session)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Guard.StartSession]")
	}
	return session, token, nil
}

// RevokeAllFor invalidates every session and pending context of an identity.
func (g *Guard) RevokeAllFor(ctx context.Context, identityID string) (int, error) {
	count, err := g.repo.DeleteByIdentity(ctx, identityID)
	if err != nil {
		return 0, errors.Wrap(err, "[Guard.RevokeAllFor] repo.DeleteByIdentity")
	}
	return count, nil
}

// EndSession deletes the session referenced by a remember-me token.
// Unusable tokens are ignored.
func (g *Guard) EndSession(ctx context.Context, rememberToken string) error {
	if strings.TrimSpace(rememberToken) == "" {
		return nil
	}
	claims, err := g.signer.parse(rememberToken)
	if err != nil {
		return nil
	}
	if err := g.repo.Delete(ctx, claims.SessionID); err != nil {
		return errors.Wrap(err, "[Guard.EndSession] repo.Delete")
	}
	return nil
}

func (g *Guard) limiter(identityID string) *rate.Limiter {
	g.limitersMu.Lock()
	defer g.limitersMu.Unlock()

	l, ok := g.limiters[identityID]
	if !ok {
		l = rate.NewLimiter(g.loginRate, g.loginBurst)
		g.limiters[identityID] = l
	}
	return l
}
