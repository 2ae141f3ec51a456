package token

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
type InMemoryRepo struct {
	mu         sync.RWMutex
	tokens     map[string]*AccessToken
	identities map[string]map[string]struct{} // identity ID to its tokens
}

// NewInMemoryRepo creates an empty repo.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tokens:     make(map[string]*AccessToken),
		identities: make(map[string]map[string]struct{}),
	}
}

func (r *InMemoryRepo) Create(_ context.Context, token *AccessToken) error {
	if token == nil || token.AuthToken == "" {
		return errors.New("[InMemoryRepo.Create] token is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[token.AuthToken]; exists {
		return errors.New("[InMemoryRepo.Create] token already exists")
	}
	stored := *token
	r.tokens[token.AuthToken] = &stored
	if _, ok := r.identities[token.IdentityID]; !ok {
		r.identities[token.IdentityID] = make(map[string]struct{})
	}
	r.identities[token.IdentityID][token.AuthToken] = struct{}{}
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, authToken string) (*AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[authToken]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, authToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[authToken]
	if !ok {
		return nil
	}
	delete(r.tokens, authToken)
	if owned, ok := r.identities[token.IdentityID]; ok {
		delete(owned, authToken)
		if len(owned) == 0 {
			delete(r.identities, token.IdentityID)
		}
	}
	return nil
}

func (r *InMemoryRepo) DeleteByIdentity(_ context.Context, identityID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.identities[identityID]
	for authToken := range owned {
		delete(r.tokens, authToken)
	}
	delete(r.identities, identityID)
	return len(owned), nil
}
