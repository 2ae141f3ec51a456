package sessions

import "context"

// Repo stores signed-in sessions and pending authorization contexts.
// Lookups return errors.ErrNotFound when nothing matches; deletes are
// idempotent.
type Repo interface {
	Upsert(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	// DeleteByIdentity removes every session and pending context of an
	// identity, returning the number of sessions removed.
	DeleteByIdentity(ctx context.Context, identityID string) (int, error)

	UpsertPending(ctx context.Context, pending *PendingAuthorization) error
	GetPending(ctx context.Context, sessionID string) (*PendingAuthorization, error)
	DeletePending(ctx context.Context, sessionID string) error
}
