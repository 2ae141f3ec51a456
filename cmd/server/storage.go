package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-indieauth-server/internal/config"
	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/jrsteele09/go-indieauth-server/storage/pgstore"
	"github.com/jrsteele09/go-indieauth-server/storage/redisstore"
	"github.com/jrsteele09/go-indieauth-server/token"
)

// storage is the set of repos backing one storage driver.
type storage struct {
	requests requests.Repo
	tokens   token.Repo
	sessions sessions.Repo
	ping     func(context.Context) error
	close    func() error
}

func openStorage(ctx context.Context, c config.StorageConfig) (*storage, error) {
	switch c.GetStorageDriver() {
	case config.StorageDriverMemory:
		return &storage{
			requests: requests.NewInMemoryRepo(),
			tokens:   token.NewInMemoryRepo(),
			sessions: sessions.NewInMemoryRepo(),
			ping:     func(context.Context) error { return nil },
			close:    func() error { return nil },
		}, nil

	case config.StorageDriverRedis:
		store, err := redisstore.New(ctx, redisstore.Config{
			Addr:      c.GetRedisAddr(),
			Username:  c.GetRedisUsername(),
			Password:  c.GetRedisPassword(),
			DB:        c.GetRedisDB(),
			KeyPrefix: c.GetRedisKeyPrefix(),
		})
		if err != nil {
			return nil, fmt.Errorf("redisstore.New: %w", err)
		}
		return &storage{
			requests: store.Requests(),
			tokens:   store.Tokens(),
			sessions: store.Sessions(),
			ping:     store.Ping,
			close:    store.Close,
		}, nil

	case config.StorageDriverPostgres:
		store, err := pgstore.New(ctx, pgstore.Config{
			DSN:         c.GetPostgresDSN(),
			AutoMigrate: c.GetPostgresAutoMigrate(),
		})
		if err != nil {
			return nil, fmt.Errorf("pgstore.New: %w", err)
		}
		return &storage{
			requests: store.Requests(),
			tokens:   store.Tokens(),
			sessions: store.Sessions(),
			ping:     store.Ping,
			close:    store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", c.GetStorageDriver())
}
