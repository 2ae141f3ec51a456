package token

import "context"

// Repo defines storage for access tokens.
type Repo interface {
	Create(ctx context.Context, token *AccessToken) error
	// Get returns errors.ErrNotFound for unknown tokens.
	Get(ctx context.Context, authToken string) (*AccessToken, error)
	// Delete is idempotent.
	Delete(ctx context.Context, authToken string) error
	// DeleteByIdentity removes every token of an identity and reports how many.
	DeleteByIdentity(ctx context.Context, identityID string) (int, error)
}
