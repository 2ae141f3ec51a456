package requests

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type pairKey struct {
	identityID string
	clientID   string
}

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
type InMemoryRepo struct {
	mu       sync.RWMutex
	requests map[string]*AuthorizationRequest // code to request
	pairs    map[pairKey]string               // (identity, client) to code
}

// NewInMemoryRepo creates an empty repo.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		requests: make(map[string]*AuthorizationRequest),
		pairs:    make(map[pairKey]string),
	}
}

func (r *InMemoryRepo) Replace(_ context.Context, request *AuthorizationRequest) error {
	if request == nil || request.Code == "" {
		return errors.New("[InMemoryRepo.Replace] request with a code is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{identityID: request.IdentityID, clientID: request.ClientID}
	if previous, ok := r.pairs[key]; ok {
		delete(r.requests, previous)
	}

	stored := *request
	r.requests[request.Code] = &stored
	r.pairs[key] = request.Code
	return nil
}

func (r *InMemoryRepo) GetByCode(_ context.Context, code string) (*AuthorizationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.requests[code]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *InMemoryRepo) GetByClientAndIdentity(_ context.Context, clientID, identityID string) (*AuthorizationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.pairs[pairKey{identityID: identityID, clientID: clientID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	request, ok := r.requests[code]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *InMemoryRepo) UpdateScope(_ context.Context, code, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[code]
	if !ok {
		return apperrors.ErrNotFound
	}
	request.Scope = scope
	return nil
}

func (r *InMemoryRepo) Take(_ context.Context, code string) (*AuthorizationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[code]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(r.requests, code)

	key := pairKey{identityID: request.IdentityID, clientID: request.ClientID}
	if r.pairs[key] == code {
		delete(r.pairs, key)
	}
	return request, nil
}
