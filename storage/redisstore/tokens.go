package redisstore

import (
	"context"
	"encoding/json"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/token"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ token.Repo = (*TokenRepo)(nil)

// createTokenScript stores a token and indexes it in one step so bulk
// revocation never sees one without the other.
var createTokenScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
	return 0
end
redis.call('SADD', KEYS[2], ARGV[2])
return 1
`)

// TokenRepo stores tokens as JSON under token:<auth_token> and indexes them
// per identity in the set token:identity:<identity>.
type TokenRepo struct {
	store *Store
}

func (r *TokenRepo) tokenKey(authToken string) string {
	return r.store.key("token", authToken)
}

func (r *TokenRepo) identityKey(identityID string) string {
	return r.store.key("token", "identity", identityID)
}

func (r *TokenRepo) Create(ctx context.Context, accessToken *token.AccessToken) error {
	if accessToken == nil || accessToken.AuthToken == "" {
		return errors.New("[TokenRepo.Create] token is required")
	}
	data, err := json.Marshal(accessToken)
	if err != nil {
		return errors.Wrap(err, "[TokenRepo.Create] json.Marshal")
	}

	keys := []string{r.tokenKey(accessToken.AuthToken), r.identityKey(accessToken.IdentityID)}
	created, err := createTokenScript.Run(ctx, r.store.client, keys, data, accessToken.AuthToken).Int()
	if err != nil {
		return errors.Wrap(err, "[TokenRepo.Create] createTokenScript")
	}
	if created == 0 {
		return errors.New("[TokenRepo.Create] token already exists")
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, authToken string) (*token.AccessToken, error) {
	data, err := r.store.client.Get(ctx, r.tokenKey(authToken)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[TokenRepo.Get] Get")
	}

	var accessToken token.AccessToken
	if err := json.Unmarshal(data, &accessToken); err != nil {
		return nil, errors.Wrap(err, "[TokenRepo.Get] json.Unmarshal")
	}
	return &accessToken, nil
}

func (r *TokenRepo) Delete(ctx context.Context, authToken string) error {
	accessToken, err := r.Get(ctx, authToken)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[TokenRepo.Delete]")
	}

	_, err = r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.tokenKey(authToken))
		pipe.SRem(ctx, r.identityKey(accessToken.IdentityID), authToken)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[TokenRepo.Delete] TxPipelined")
	}
	return nil
}

func (r *TokenRepo) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	keys := []string{r.identityKey(identityID)}
	deleted, err := deleteIndexedScript.Run(ctx, r.store.client, keys, r.tokenKey("")).Int()
	if err != nil {
		return 0, errors.Wrap(err, "[TokenRepo.DeleteByIdentity] deleteIndexedScript")
	}
	return deleted, nil
}
