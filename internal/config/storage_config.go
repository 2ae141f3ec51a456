package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"

	storageDriverKey       = "storage.driver"
	redisAddrKey           = "storage.redis.addr"
	redisUsernameKey       = "storage.redis.username"
	redisPasswordKey       = "storage.redis.password"
	redisDBKey             = "storage.redis.db"
	redisKeyPrefixKey      = "storage.redis.key_prefix"
	postgresDSNKey         = "storage.postgres.dsn"
	postgresAutoMigrateKey = "storage.postgres.auto_migrate"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetRedisAddr() string
	GetRedisUsername() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
	GetPostgresDSN() string
	GetPostgresAutoMigrate() bool
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

// GetStorageDriver returns one of memory, redis or postgres.
func (s Storage) GetStorageDriver() string {
	return strings.ToLower(s.v.GetString(storageDriverKey))
}

func (s Storage) GetRedisAddr() string {
	return s.v.GetString(redisAddrKey)
}

func (s Storage) GetRedisUsername() string {
	return s.v.GetString(redisUsernameKey)
}

func (s Storage) GetRedisPassword() string {
	return s.v.GetString(redisPasswordKey)
}

func (s Storage) GetRedisDB() int {
	return s.v.GetInt(redisDBKey)
}

func (s Storage) GetRedisKeyPrefix() string {
	return s.v.GetString(redisKeyPrefixKey)
}

func (s Storage) GetPostgresDSN() string {
	return s.v.GetString(postgresDSNKey)
}

func (s Storage) GetPostgresAutoMigrate() bool {
	return s.v.GetBool(postgresAutoMigrateKey)
}
