package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-indieauth-server/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		c, err := config.New()
		require.NoError(t, err)
		store, err := openStorage(ctx, c)
		require.NoError(t, err)
		require.NoError(t, store.ping(ctx))
		require.NoError(t, store.close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv("INDIEAUTH_STORAGE_DRIVER", "redis")
		t.Setenv("INDIEAUTH_STORAGE_REDIS_ADDR", mr.Addr())
		c, err := config.New()
		require.NoError(t, err)
		store, err := openStorage(ctx, c)
		require.NoError(t, err)
		require.NoError(t, store.ping(ctx))
		require.NoError(t, store.close())
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("INDIEAUTH_STORAGE_DRIVER", "cassandra")
		c, err := config.New()
		require.NoError(t, err)
		_, err = openStorage(ctx, c)
		require.Error(t, err)
	})
}

func TestNewAuthorizationService(t *testing.T) {
	ctx := context.Background()
	t.Setenv("INDIEAUTH_BASE_URL", "https://operator.example")
	c, err := config.New()
	require.NoError(t, err)
	store, err := openStorage(ctx, c)
	require.NoError(t, err)

	authService, err := newAuthorizationService(ctx, c, store, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, authService)
}
