package requests

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/scopes"
	"github.com/pkg/errors"
)

const (
	// MinCodeLength is the minimum number of random bytes in a code (160 bits).
	MinCodeLength = 20
	// DefaultCodeTTL is how long a code stays redeemable.
	DefaultCodeTTL = 10 * time.Minute
)

// Store manages authorization requests: creation, lookup, consent-time
// scope narrowing and single-use redemption.
type Store struct {
	repo       Repo
	codeLength int
	nowFunc    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCodeLength sets the number of random bytes per code. Values below
// MinCodeLength are raised to it.
func WithCodeLength(length int) StoreOption {
	return func(s *Store) {
		s.codeLength = length
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// NewStore creates a Store over repo.
func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}
	s := &Store{
		repo:       repo,
		codeLength: MinCodeLength,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.codeLength < MinCodeLength {
		s.codeLength = MinCodeLength
	}
	return s, nil
}

// Create issues a new request for (identityID, clientID), replacing any
// earlier request for the same pair.
func (s *Store) Create(ctx context.Context, identityID, clientID, redirectURI, scope, codeChallenge string) (*AuthorizationRequest, error) {
	code, err := generateCode(s.codeLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Create] generateCode")
	}

	request := &AuthorizationRequest{
		Code:          code,
		ClientID:      clientID,
		RedirectURI:   redirectURI,
		Scope:         scopes.Parse(scope).String(),
		IdentityID:    identityID,
		CodeChallenge: codeChallenge,
		CreatedAt:     s.nowFunc(),
	}
	if err := s.repo.Replace(ctx, request); err != nil {
		return nil, errors.Wrap(err, "[Store.Create] repo.Replace")
	}
	return request, nil
}

func (s *Store) FindByCode(ctx context.Context, code string) (*AuthorizationRequest, error) {
	request, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.FindByCode]")
	}
	return request, nil
}

func (s *Store) FindByClientAndIdentity(ctx context.Context, clientID, identityID string) (*AuthorizationRequest, error) {
	request, err := s.repo.GetByClientAndIdentity(ctx, clientID, identityID)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.FindByClientAndIdentity]")
	}
	return request, nil
}

// UpdateScope narrows the request's scope to newScope. A newScope that is
// not a subset of the current scope is rejected.
func (s *Store) UpdateScope(ctx context.Context, request *AuthorizationRequest, newScope scopes.Set) error {
	if !newScope.IsSubsetOf(request.Scopes()) {
		return errors.Errorf("[Store.UpdateScope] scope %q would widen %q", newScope.String(), request.Scope)
	}
	if err := s.repo.UpdateScope(ctx, request.Code, newScope.String()); err != nil {
		return errors.Wrap(err, "[Store.UpdateScope] repo.UpdateScope")
	}
	request.Scope = newScope.String()
	return nil
}

// Redeem atomically removes and returns the request for code.
func (s *Store) Redeem(ctx context.Context, code string) (*AuthorizationRequest, error) {
	if code == "" {
		return nil, apperrors.InvalidGrant("code not found")
	}
	request, err := s.repo.Take(ctx, code)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.InvalidGrant("code not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Redeem] repo.Take")
	}
	return request, nil
}

func generateCode(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "rand.Read")
	}
	return hex.EncodeToString(bytes), nil
}
