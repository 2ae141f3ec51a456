// Package redisstore keeps authorization requests, access tokens and
// sessions in Redis so several server instances can share them.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second

	// DefaultRequestTTL bounds how long a request survives in Redis. The
	// engine applies its own, shorter, code TTL on redemption.
	DefaultRequestTTL = 15 * time.Minute
	// DefaultPendingTTL bounds how long a pending authorization context lives.
	DefaultPendingTTL = 30 * time.Minute

	DefaultKeyPrefix = "indieauth:"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string

	// Timeouts (defaults: Dial=5s, Read=3s, Write=3s).
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	RequestTTL time.Duration
	PendingTTL time.Duration
}

// Store is the shared Redis connection behind the individual repos.
type Store struct {
	client     redis.UniversalClient
	keyPrefix  string
	requestTTL time.Duration
	pendingTTL time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("[redisstore.New] address is required")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "[redisstore.New] failed to connect to redis")
	}

	return NewWithClient(client, cfg.KeyPrefix, cfg.RequestTTL, cfg.PendingTTL), nil
}

// NewWithClient wraps a pre-configured client. Zero TTLs select the defaults.
func NewWithClient(client redis.UniversalClient, keyPrefix string, requestTTL, pendingTTL time.Duration) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if requestTTL <= 0 {
		requestTTL = DefaultRequestTTL
	}
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	return &Store{
		client:     client,
		keyPrefix:  keyPrefix,
		requestTTL: requestTTL,
		pendingTTL: pendingTTL,
	}
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Requests returns the authorization request repo.
func (s *Store) Requests() *RequestRepo {
	return &RequestRepo{store: s}
}

// Tokens returns the access token repo.
func (s *Store) Tokens() *TokenRepo {
	return &TokenRepo{store: s}
}

// Sessions returns the session repo.
func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{store: s}
}

func (s *Store) key(parts ...string) string {
	key := s.keyPrefix
	for i, part := range parts {
		if i > 0 {
			key += ":"
		}
		key += part
	}
	return key
}

// deleteIndexedScript drains per-identity index sets in one step. KEYS are
// the index sets and ARGV[i] is the key prefix of the members of KEYS[i].
// It returns how many live keys the first set referenced.
var deleteIndexedScript = redis.NewScript(`
local deleted = 0
for i, set in ipairs(KEYS) do
	local members = redis.call('SMEMBERS', set)
	for _, member in ipairs(members) do
		local removed = redis.call('DEL', ARGV[i] .. member)
		if i == 1 then
			deleted = deleted + removed
		end
	end
	redis.call('DEL', set)
end
return deleted
`)

// deleteIfEqualsScript removes an index key only while it still points at
// the expected value.
var deleteIfEqualsScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)
