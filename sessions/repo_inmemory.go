package sessions

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	pending  map[string]*PendingAuthorization
}

// NewInMemoryRepo creates an empty repo.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*Session),
		pending:  make(map[string]*PendingAuthorization),
	}
}

func (r *InMemoryRepo) Upsert(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return errors.New("[InMemoryRepo.Upsert] session ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

func (r *InMemoryRepo) DeleteByIdentity(_ context.Context, identityID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, session := range r.sessions {
		if session.IdentityID == identityID {
			delete(r.sessions, id)
			count++
		}
	}
	for id, pending := range r.pending {
		if pending.IdentityID == identityID {
			delete(r.pending, id)
		}
	}
	return count, nil
}

func (r *InMemoryRepo) UpsertPending(_ context.Context, pending *PendingAuthorization) error {
	if pending == nil || pending.SessionID == "" {
		return errors.New("[InMemoryRepo.UpsertPending] session ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *pending
	r.pending[pending.SessionID] = &stored
	return nil
}

func (r *InMemoryRepo) GetPending(_ context.Context, sessionID string) (*PendingAuthorization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pending, ok := r.pending[sessionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *pending
	return &copied, nil
}

func (r *InMemoryRepo) DeletePending(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, sessionID)
	return nil
}
