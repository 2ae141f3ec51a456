package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/jrsteele09/go-indieauth-server/identity"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/pkg/errors"
)

// OperatorConfig describes the operator identity seeded at startup.
type OperatorConfig interface {
	GetBaseURL() string
	GetIdentityProfileURL() string
	GetIdentityName() string
	GetIdentityURL() string
	GetIdentityPhoto() string
	GetIdentityEmail() string
	GetIdentityPasswordHash() string
}

// InitialiseOperator makes sure the operator identity exists. The profile
// URL defaults to the base URL. When no password hash is configured and the
// identity is new, a random password is generated and returned so it can be
// shown once; otherwise the returned password is empty.
func InitialiseOperator(ctx context.Context, config OperatorConfig, identities identity.Repo) (*identity.Identity, string, error) {
	profileURL := config.GetIdentityProfileURL()
	if profileURL == "" {
		profileURL = config.GetBaseURL() + "/"
	}
	profileURL = identity.CanonicalURL(profileURL)

	existing, err := identities.GetByURL(ctx, profileURL)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, "", errors.Wrap(err, "[server InitialiseOperator] identities.GetByURL")
	}

	operator := &identity.Identity{
		ProfileURL:   profileURL,
		Name:         config.GetIdentityName(),
		URL:          config.GetIdentityURL(),
		Photo:        config.GetIdentityPhoto(),
		Email:        config.GetIdentityEmail(),
		PasswordHash: config.GetIdentityPasswordHash(),
	}
	if existing != nil {
		operator.ID = existing.ID
		if operator.PasswordHash == "" {
			operator.PasswordHash = existing.PasswordHash
		}
	}

	var generatedPassword string
	if operator.PasswordHash == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return nil, "", errors.Wrap(err, "[server InitialiseOperator] failed to generate password")
		}
		generatedPassword = base64.RawURLEncoding.EncodeToString(passwordBytes)

		operator.PasswordHash, err = identity.HashPassword(generatedPassword)
		if err != nil {
			return nil, "", errors.Wrap(err, "[server InitialiseOperator] failed to hash password")
		}
	}

	if err := identities.Upsert(ctx, operator); err != nil {
		return nil, "", errors.Wrap(err, "[server InitialiseOperator] identities.Upsert")
	}
	return operator, generatedPassword, nil
}
