package redisstore

import (
	"context"
	"encoding/json"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ requests.Repo = (*RequestRepo)(nil)

// RequestRepo stores each request as JSON under request:<code> with a pair
// index request:pair:<identity>:<client> pointing at the live code.
type RequestRepo struct {
	store *Store
}

// replaceRequestScript drops the request the pair index points at, then
// stores the new request and repoints the index.
// KEYS[1] pair index, KEYS[2] new request key.
// ARGV[1] request JSON, ARGV[2] TTL in ms, ARGV[3] request key prefix, ARGV[4] new code.
var replaceRequestScript = redis.NewScript(`
local previous = redis.call('GET', KEYS[1])
if previous then
	redis.call('DEL', ARGV[3] .. previous)
end
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
redis.call('SET', KEYS[1], ARGV[4], 'PX', ARGV[2])
return 1
`)

func (r *RequestRepo) requestKey(code string) string {
	return r.store.key("request", code)
}

func (r *RequestRepo) pairKey(identityID, clientID string) string {
	return r.store.key("request", "pair", identityID, clientID)
}

func (r *RequestRepo) Replace(ctx context.Context, request *requests.AuthorizationRequest) error {
	if request == nil || request.Code == "" {
		return errors.New("[RequestRepo.Replace] request with a code is required")
	}
	data, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "[RequestRepo.Replace] json.Marshal")
	}

	keys := []string{r.pairKey(request.IdentityID, request.ClientID), r.requestKey(request.Code)}
	args := []interface{}{data, r.store.requestTTL.Milliseconds(), r.requestKey(""), request.Code}
	if err := replaceRequestScript.Run(ctx, r.store.client, keys, args...).Err(); err != nil {
		return errors.Wrap(err, "[RequestRepo.Replace] replaceRequestScript")
	}
	return nil
}

func (r *RequestRepo) GetByCode(ctx context.Context, code string) (*requests.AuthorizationRequest, error) {
	data, err := r.store.client.Get(ctx, r.requestKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RequestRepo.GetByCode] Get")
	}
	return decodeRequest(data)
}

func (r *RequestRepo) GetByClientAndIdentity(ctx context.Context, clientID, identityID string) (*requests.AuthorizationRequest, error) {
	code, err := r.store.client.Get(ctx, r.pairKey(identityID, clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RequestRepo.GetByClientAndIdentity] Get")
	}
	return r.GetByCode(ctx, code)
}

// UpdateScope only overwrites a request that still exists (SET XX) and
// keeps its remaining TTL.
func (r *RequestRepo) UpdateScope(ctx context.Context, code, scope string) error {
	request, err := r.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	request.Scope = scope
	data, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "[RequestRepo.UpdateScope] json.Marshal")
	}

	err = r.store.client.SetArgs(ctx, r.requestKey(code), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "[RequestRepo.UpdateScope] SetArgs")
	}
	return nil
}

// Take uses GETDEL so exactly one caller receives the request.
func (r *RequestRepo) Take(ctx context.Context, code string) (*requests.AuthorizationRequest, error) {
	data, err := r.store.client.GetDel(ctx, r.requestKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RequestRepo.Take] GetDel")
	}
	request, err := decodeRequest(data)
	if err != nil {
		return nil, err
	}

	pair := r.pairKey(request.IdentityID, request.ClientID)
	if err := deleteIfEqualsScript.Run(ctx, r.store.client, []string{pair}, code).Err(); err != nil {
		return nil, errors.Wrap(err, "[RequestRepo.Take] deleteIfEqualsScript")
	}
	return request, nil
}

func decodeRequest(data []byte) (*requests.AuthorizationRequest, error) {
	var request requests.AuthorizationRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, errors.Wrap(err, "[redisstore.decodeRequest] json.Unmarshal")
	}
	return &request, nil
}
