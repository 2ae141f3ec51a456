package requests

import "context"

// Repo defines storage for authorization requests. Implementations must make
// Replace and Take atomic with respect to concurrent callers.
type Repo interface {
	// Replace deletes every request for (request.IdentityID, request.ClientID)
	// and stores request, as a single step.
	Replace(ctx context.Context, request *AuthorizationRequest) error

	// GetByCode returns errors.ErrNotFound when the code is unknown.
	GetByCode(ctx context.Context, code string) (*AuthorizationRequest, error)

	// GetByClientAndIdentity returns the live request for the pair.
	GetByClientAndIdentity(ctx context.Context, clientID, identityID string) (*AuthorizationRequest, error)

	// UpdateScope rewrites the scope of an existing request. It returns
	// errors.ErrNotFound rather than recreating a redeemed code.
	UpdateScope(ctx context.Context, code, scope string) error

	// Take looks up and deletes the request in one operation. At most one
	// caller can take a given code.
	Take(ctx context.Context, code string) (*AuthorizationRequest, error)
}
