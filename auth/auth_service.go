package auth

import (
	"context"
	"net/url"
	"time"

	"github.com/jrsteele09/go-indieauth-server/identity"
	"github.com/jrsteele09/go-indieauth-server/indieauth"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/pkce"
	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/jrsteele09/go-indieauth-server/scopes"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/jrsteele09/go-indieauth-server/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/go-indieauth-server/auth"

// Components holds the collaborators of the AuthorizationService.
type Components struct {
	Identities identity.Repo   // Resolves "me" URLs and identity IDs
	Requests   *requests.Store // Authorization requests and codes
	Tokens     *token.Manager  // Access tokens
	Guard      *sessions.Guard // Pending contexts, sign-in and replay detection
}

// AuthorizationService runs the IndieAuth authorization code flow:
// initiate, authorize, redeem, then issue or verify.
type AuthorizationService struct {
	components       Components
	descriptions     scopes.Descriptions
	codeTTL          time.Duration
	requirePKCE      bool
	rememberLifetime time.Duration
	logger           zerolog.Logger
	tracer           trace.Tracer
	nowTime          func() time.Time
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.logger = logger
	}
}

func WithTracerProvider(provider trace.TracerProvider) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.tracer = provider.Tracer(tracerName)
	}
}

// WithScopeDescriptions sets the consent text shown for each scope.
func WithScopeDescriptions(descriptions scopes.Descriptions) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.descriptions = descriptions
	}
}

// WithCodeTTL sets how long an authorization code stays redeemable.
func WithCodeTTL(ttl time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if ttl > 0 {
			as.codeTTL = ttl
		}
	}
}

// WithRequirePKCE rejects redemption of requests that carry no code
// challenge. By default such requests pass the challenge check.
func WithRequirePKCE(require bool) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.requirePKCE = require
	}
}

// WithRememberLifetime enables "remember me" sessions of the given lifetime.
func WithRememberLifetime(lifetime time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.rememberLifetime = lifetime
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(components Components, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if components.Identities == nil {
		return nil, errors.New("[NewAuthorizationService] Identities repo is required")
	}
	if components.Requests == nil {
		return nil, errors.New("[NewAuthorizationService] Requests store is required")
	}
	if components.Tokens == nil {
		return nil, errors.New("[NewAuthorizationService] Tokens manager is required")
	}
	if components.Guard == nil {
		return nil, errors.New("[NewAuthorizationService] Guard is required")
	}

	authService := &AuthorizationService{
		components:   components,
		descriptions: scopes.NewDescriptions(scopes.DefaultDescriptions()),
		codeTTL:      requests.DefaultCodeTTL,
		logger:       zerolog.Nop(),
		tracer:       otel.Tracer(tracerName),
		nowTime:      time.Now,
	}

	for _, opt := range options {
		opt(authService)
	}

	return authService, nil
}

// ConsentContext is what the consent screen needs after a flow is initiated.
type ConsentContext struct {
	Request      *requests.AuthorizationRequest
	Identity     *identity.Identity
	Scopes       []scopes.Described
	Rememberable bool // "remember me" may be offered
	SignedIn     bool // a remembered session will approve without a password
}

// AuthorizationRedirect is the outcome of the consent step.
type AuthorizationRedirect struct {
	Location      string // Where to send the user agent
	Code          string
	State         string
	RememberToken string // Set when a remembered session was started
	Cancelled     bool
}

// Initiate validates an authorization request, creates its code and binds
// the pending context to the browser session.
func (as *AuthorizationService) Initiate(ctx context.Context, params InitiateParameters) (_ *ConsentContext, err error) {
	ctx, span := as.startSpan(ctx, "auth.initiate", attribute.String(attrClientID, params.ClientID))
	defer func() { endSpan(span, err) }()

	if err := params.validate(); err != nil {
		return nil, err
	}

	ident, err := as.components.Identities.GetByURL(ctx, params.Me)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidUser
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Initiate] Identities.GetByURL")
	}

	request, err := as.components.Requests.Create(ctx, ident.ID, params.ClientID, params.RedirectURI, params.Scope, params.CodeChallenge)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Initiate] Requests.Create")
	}

	if _, err := as.components.Guard.BindPendingRequest(ctx, params.SessionID, ident.ID, params.ClientID, params.State, params.CodeChallenge); err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Initiate] Guard.BindPendingRequest")
	}

	session, err := as.components.Guard.Resume(ctx, params.RememberToken)
	if err != nil {
		return nil, as.remediateReplay(ctx, err)
	}

	return &ConsentContext{
		Request:      request,
		Identity:     ident,
		Scopes:       as.descriptions.DescribeAll(request.Scopes()),
		Rememberable: as.rememberLifetime > 0 && session == nil,
		SignedIn:     session != nil,
	}, nil
}

// Authorize handles the consent form: it authenticates the user, narrows the
// scope if a selection was made and returns the redirect carrying the code.
// A detected session replay revokes every session and token of the
// implicated identity before Authorize returns.
func (as *AuthorizationService) Authorize(ctx context.Context, params AuthorizeParameters) (_ *AuthorizationRedirect, err error) {
	ctx, span := as.startSpan(ctx, "auth.authorize")
	defer func() { endSpan(span, err) }()

	guard := as.components.Guard
	pending, err := guard.Pending(ctx, params.SessionID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidUser
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Authorize] Guard.Pending")
	}
	span.SetAttributes(attribute.String(attrClientID, pending.ClientID))

	if params.Cancel {
		return &AuthorizationRedirect{Location: pending.ClientID, Cancelled: true}, nil
	}

	session, err := guard.Resume(ctx, params.RememberToken)
	if err != nil {
		return nil, as.remediateReplay(ctx, err)
	}

	creds := sessions.Credentials{ProfileURL: params.ProfileURL, Password: params.Password}
	ident, err := guard.Authenticate(ctx, creds, session, pending)
	if err != nil {
		return nil, as.remediateReplay(ctx, err)
	}

	if ident.ID != pending.IdentityID {
		return nil, apperrors.ErrInvalidUser
	}

	request, err := as.components.Requests.FindByClientAndIdentity(ctx, pending.ClientID, ident.ID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidUser
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Authorize] Requests.FindByClientAndIdentity")
	}

	// Another Initiate for the same client replaces the live request. Only
	// the request this browser started may be released.
	if !pending.Matches(request.ClientID, request.CodeChallenge) {
		as.logger.Warn().Str("identity_id", ident.ID).Str("client_id", request.ClientID).Msg("authorization request superseded")
		return nil, apperrors.InvalidGrant("authorization request superseded")
	}

	if params.ScopeSelected {
		narrowed := request.Scopes().Narrow(scopes.FromSlice(params.Scope))
		if err := as.components.Requests.UpdateScope(ctx, request, narrowed); err != nil {
			return nil, errors.Wrap(err, "[AuthorizationService.Authorize] Requests.UpdateScope")
		}
	}

	redirect := &AuthorizationRedirect{Code: request.Code, State: pending.State}
	if params.RememberMe && session == nil && as.rememberLifetime > 0 {
		_, rememberToken, err := guard.StartSession(ctx, ident.ID, as.rememberLifetime)
		if err != nil {
			return nil, errors.Wrap(err, "[AuthorizationService.Authorize] Guard.StartSession")
		}
		redirect.RememberToken = rememberToken
	}

	if err := guard.ClearPending(ctx, params.SessionID); err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Authorize] Guard.ClearPending")
	}

	location, err := codeRedirect(request.RedirectURI, request.Code, pending.State)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Authorize] codeRedirect")
	}
	redirect.Location = location

	as.logger.Info().Str("identity_id", ident.ID).Str("client_id", request.ClientID).Str("scope", request.Scope).Msg("authorization granted")
	return redirect, nil
}

// Redeem consumes a code and validates it against the exchange parameters.
// The code is deleted before validation so it can never be retried. Every
// failure is reported as the same invalid grant.
func (as *AuthorizationService) Redeem(ctx context.Context, params RedeemParameters) (_ *requests.AuthorizationRequest, err error) {
	ctx, span := as.startSpan(ctx, "auth.redeem", attribute.String(attrClientID, params.ClientID))
	defer func() { endSpan(span, err) }()

	request, err := as.components.Requests.Redeem(ctx, params.Code)
	if err != nil {
		return nil, err
	}

	if reason := as.validationFailure(request, params); reason != "" {
		as.logger.Info().Str("client_id", params.ClientID).Str("reason", reason).Msg("code redemption rejected")
		return nil, apperrors.InvalidGrant("validation failed")
	}
	return request, nil
}

// validationFailure names the first failed redemption check, or "".
func (as *AuthorizationService) validationFailure(request *requests.AuthorizationRequest, params RedeemParameters) string {
	switch {
	case request.ClientID != params.ClientID:
		return "client_id mismatch"
	case request.RedirectURI != params.RedirectURI:
		return "redirect_uri mismatch"
	case request.Expired(as.nowTime(), as.codeTTL):
		return "code expired"
	case as.requirePKCE && request.CodeChallenge == "":
		return "code challenge required"
	case !pkce.Verify(request.CodeChallenge, params.CodeVerifier):
		return "code challenge failed"
	}
	return ""
}

// IssueToken mints an access token for a redeemed request and merges in the
// profile projection.
func (as *AuthorizationService) IssueToken(ctx context.Context, request *requests.AuthorizationRequest) (_ *indieauth.TokenResponse, err error) {
	ctx, span := as.startSpan(ctx, "auth.issue_token", attribute.String(attrClientID, request.ClientID))
	defer func() { endSpan(span, err) }()

	if request.Scopes().Empty() {
		return nil, apperrors.InvalidGrant("missing scope")
	}

	ident, err := as.requestIdentity(ctx, request)
	if err != nil {
		return nil, err
	}

	accessToken, err := as.components.Tokens.Issue(ctx, ident.ID, request.Scopes().String(), request.ClientID)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.IssueToken] Tokens.Issue")
	}
	span.SetAttributes(attribute.String(attrScope, accessToken.Scope))

	return &indieauth.TokenResponse{
		AccessToken: accessToken.AuthToken,
		TokenType:   indieauth.TokenTypeBearer,
		Scope:       accessToken.Scope,
		ExpiresIn:   as.components.Tokens.ExpiresIn(),
		Profile:     ProjectProfile(ident, accessToken.Scopes()),
	}, nil
}

// FetchProfile returns the profile projection of a redeemed request without
// minting a token.
func (as *AuthorizationService) FetchProfile(ctx context.Context, request *requests.AuthorizationRequest) (*indieauth.Profile, error) {
	ident, err := as.requestIdentity(ctx, request)
	if err != nil {
		return nil, err
	}
	profile := ProjectProfile(ident, request.Scopes())
	return &profile, nil
}

// RedeemForToken redeems a code and issues an access token.
func (as *AuthorizationService) RedeemForToken(ctx context.Context, params RedeemParameters) (*indieauth.TokenResponse, error) {
	request, err := as.Redeem(ctx, params)
	if err != nil {
		return nil, err
	}
	return as.IssueToken(ctx, request)
}

// RedeemForProfile redeems a code for the identity profile only.
func (as *AuthorizationService) RedeemForProfile(ctx context.Context, params RedeemParameters) (*indieauth.Profile, error) {
	request, err := as.Redeem(ctx, params)
	if err != nil {
		return nil, err
	}
	return as.FetchProfile(ctx, request)
}

// VerifyToken describes a bearer token for a resource server. Expired
// tokens report ErrTokenExpired once and ErrNotFound afterwards.
func (as *AuthorizationService) VerifyToken(ctx context.Context, bearerToken string) (_ *indieauth.TokenVerification, err error) {
	ctx, span := as.startSpan(ctx, "auth.verify_token")
	defer func() { endSpan(span, err) }()

	accessToken, err := as.components.Tokens.Verify(ctx, bearerToken)
	if err != nil {
		return nil, err
	}

	ident, err := as.components.Identities.GetByID(ctx, accessToken.IdentityID)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.VerifyToken] Identities.GetByID")
	}

	return &indieauth.TokenVerification{
		Me:       identity.CanonicalURL(ident.ProfileURL),
		ClientID: accessToken.ClientID,
		Scope:    accessToken.Scope,
	}, nil
}

// RevokeToken deletes a bearer token. Unknown tokens are ignored.
func (as *AuthorizationService) RevokeToken(ctx context.Context, bearerToken string) error {
	if err := as.components.Tokens.Revoke(ctx, bearerToken); err != nil {
		return errors.Wrap(err, "[AuthorizationService.RevokeToken]")
	}
	return nil
}

// Logout ends the remembered session referenced by rememberToken.
func (as *AuthorizationService) Logout(ctx context.Context, rememberToken string) error {
	if err := as.components.Guard.EndSession(ctx, rememberToken); err != nil {
		return errors.Wrap(err, "[AuthorizationService.Logout]")
	}
	return nil
}

// requestIdentity loads the identity that approved request. A request
// whose identity has vanished is treated as an invalid grant.
func (as *AuthorizationService) requestIdentity(ctx context.Context, request *requests.AuthorizationRequest) (*identity.Identity, error) {
	ident, err := as.components.Identities.GetByID(ctx, request.IdentityID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.InvalidGrant("validation failed")
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.requestIdentity] Identities.GetByID")
	}
	return ident, nil
}

// codeRedirect appends code and state to redirectURI, keeping any query the
// client registered.
func codeRedirect(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Set("code", code)
	query.Set("state", state)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
