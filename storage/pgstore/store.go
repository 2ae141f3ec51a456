// Package pgstore keeps authorization requests, access tokens and sessions
// in Postgres through gorm.
package pgstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DefaultMaxOpenConns    = 10
	DefaultConnMaxLifetime = 30 * time.Minute
)

// Config holds the Postgres connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	// AutoMigrate creates or updates the tables on startup.
	AutoMigrate bool
}

// Store is the shared gorm handle behind the individual repos.
type Store struct {
	db *gorm.DB
}

// New opens the database, verifies the connection and optionally migrates
// the schema.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("[pgstore.New] dsn is required")
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = DefaultConnMaxLifetime
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[pgstore.New] gorm.Open")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "[pgstore.New] db.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := NewWithDB(db)
	if err := store.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "[pgstore.New] failed to connect to postgres")
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return store, nil
}

// NewWithDB wraps an already opened gorm handle.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables the repos use.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(&requestModel{}, &tokenModel{}, &sessionModel{}, &pendingModel{})
	if err != nil {
		return errors.Wrap(err, "[Store.Migrate] AutoMigrate")
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "[Store.Ping] db.DB")
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "[Store.Close] db.DB")
	}
	return sqlDB.Close()
}

// Requests returns the authorization request repo.
func (s *Store) Requests() *RequestRepo {
	return &RequestRepo{db: s.db}
}

// Tokens returns the access token repo.
func (s *Store) Tokens() *TokenRepo {
	return &TokenRepo{db: s.db}
}

// Sessions returns the session repo.
func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{db: s.db}
}
