package identity

import "context"

// Repo resolves identities. Lookups return errors.ErrNotFound when nothing matches.
type Repo interface {
	Upsert(ctx context.Context, identity *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	// GetByURL matches the canonical form of profileURL.
	GetByURL(ctx context.Context, profileURL string) (*Identity, error)
	GetByProfilePath(ctx context.Context, path string) (*Identity, error)
}
