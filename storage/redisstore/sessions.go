package redisstore

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*SessionRepo)(nil)

// SessionRepo stores signed-in sessions until they expire and pending
// contexts for the pending TTL, each indexed per identity.
type SessionRepo struct {
	store *Store
}

func (r *SessionRepo) sessionKey(sessionID string) string {
	return r.store.key("session", sessionID)
}

func (r *SessionRepo) sessionIdentityKey(identityID string) string {
	return r.store.key("session", "identity", identityID)
}

func (r *SessionRepo) pendingKey(sessionID string) string {
	return r.store.key("pending", sessionID)
}

func (r *SessionRepo) pendingIdentityKey(identityID string) string {
	return r.store.key("pending", "identity", identityID)
}

func (r *SessionRepo) Upsert(ctx context.Context, session *sessions.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("[SessionRepo.Upsert] session ID is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.Upsert] json.Marshal")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	_, err = r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.ID), data, ttl)
		pipe.SAdd(ctx, r.sessionIdentityKey(session.IdentityID), session.ID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.Upsert] TxPipelined")
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	data, err := r.store.client.Get(ctx, r.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.Get] Get")
	}

	var session sessions.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.Get] json.Unmarshal")
	}
	return &session, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	session, err := r.Get(ctx, sessionID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.Delete]")
	}

	_, err = r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(sessionID))
		pipe.SRem(ctx, r.sessionIdentityKey(session.IdentityID), sessionID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.Delete] TxPipelined")
	}
	return nil
}

func (r *SessionRepo) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	keys := []string{r.sessionIdentityKey(identityID), r.pendingIdentityKey(identityID)}
	deleted, err := deleteIndexedScript.Run(ctx, r.store.client, keys, r.sessionKey(""), r.pendingKey("")).Int()
	if err != nil {
		return 0, errors.Wrap(err, "[SessionRepo.DeleteByIdentity] deleteIndexedScript")
	}
	return deleted, nil
}

func (r *SessionRepo) UpsertPending(ctx context.Context, pending *sessions.PendingAuthorization) error {
	if pending == nil || pending.SessionID == "" {
		return errors.New("[SessionRepo.UpsertPending] session ID is required")
	}
	data, err := json.Marshal(pending)
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.UpsertPending] json.Marshal")
	}

	previous, err := r.GetPending(ctx, pending.SessionID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return errors.Wrap(err, "[SessionRepo.UpsertPending]")
	}

	_, err = r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil && previous.IdentityID != pending.IdentityID {
			pipe.SRem(ctx, r.pendingIdentityKey(previous.IdentityID), pending.SessionID)
		}
		pipe.Set(ctx, r.pendingKey(pending.SessionID), data, r.store.pendingTTL)
		pipe.SAdd(ctx, r.pendingIdentityKey(pending.IdentityID), pending.SessionID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.UpsertPending] TxPipelined")
	}
	return nil
}

func (r *SessionRepo) GetPending(ctx context.Context, sessionID string) (*sessions.PendingAuthorization, error) {
	data, err := r.store.client.Get(ctx, r.pendingKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.GetPending] Get")
	}

	var pending sessions.PendingAuthorization
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.GetPending] json.Unmarshal")
	}
	return &pending, nil
}

func (r *SessionRepo) DeletePending(ctx context.Context, sessionID string) error {
	pending, err := r.GetPending(ctx, sessionID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.DeletePending]")
	}

	_, err = r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.pendingKey(sessionID))
		pipe.SRem(ctx, r.pendingIdentityKey(pending.IdentityID), sessionID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.DeletePending] TxPipelined")
	}
	return nil
}
