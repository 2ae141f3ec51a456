package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo. The
// operator identity is seeded from configuration at start up.
type InMemoryRepo struct {
	mu         sync.RWMutex
	identities map[string]*Identity
	urls       map[string]string // canonical profile URL to identity ID
	paths      map[string]string // profile path to identity ID
}

// NewInMemoryRepo creates an empty repo.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		identities: make(map[string]*Identity),
		urls:       make(map[string]string),
		paths:      make(map[string]string),
	}
}

func (r *InMemoryRepo) Upsert(_ context.Context, identity *Identity) error {
	if identity == nil {
		return errors.New("[InMemoryRepo.Upsert] identity cannot be nil")
	}
	if identity.ProfileURL == "" {
		return errors.New("[InMemoryRepo.Upsert] profile URL is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	if identity.ProfilePath == "" {
		identity.ProfilePath = ProfilePath(identity.ProfileURL)
	}

	if existing, ok := r.identities[identity.ID]; ok {
		delete(r.urls, CanonicalURL(existing.ProfileURL))
		delete(r.paths, existing.ProfilePath)
	}

	stored := *identity
	r.identities[identity.ID] = &stored
	r.urls[CanonicalURL(identity.ProfileURL)] = identity.ID
	r.paths[identity.ProfilePath] = identity.ID
	return nil
}

func (r *InMemoryRepo) GetByID(_ context.Context, id string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *InMemoryRepo) GetByURL(_ context.Context, profileURL string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.urls[CanonicalURL(profileURL)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.get(id)
}

func (r *InMemoryRepo) GetByProfilePath(_ context.Context, path string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.paths[path]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.get(id)
}

// get returns a copy so callers cannot mutate stored identities.
func (r *InMemoryRepo) get(id string) (*Identity, error) {
	identity, ok := r.identities[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *identity
	return &copied, nil
}
