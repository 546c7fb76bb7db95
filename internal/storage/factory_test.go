package storage_test

import (
	"os"
	"testing"
	"time"

	"cphorme/internal/config"
	"cphorme/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateStorage(t *testing.T) {
	tests := []struct {
		name    string
		config  config.SessionConfig
		wantErr bool
	}{
		{name: "memory", config: config.SessionConfig{Storage: "memory"}},
		{name: "default", config: config.SessionConfig{}},
		{name: "postgres_without_url", config: config.SessionConfig{Storage: "postgres"}, wantErr: true},
		{name: "redis_without_url", config: config.SessionConfig{Storage: "redis"}, wantErr: true},
		{name: "redis_bad_url", config: config.SessionConfig{Storage: "redis", RedisURL: "mysql://nope"}, wantErr: true},
		{name: "unknown", config: config.SessionConfig{Storage: "floppy"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := storage.NewFactory(tt.config).CreateStorage()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, s, "memory sessions use fiber's built-in store")
		})
	}
}

// Runs against a real server when TEST_REDIS_URL is set.
func TestRedisStorage(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	s, err := storage.NewRedisStorage(storage.RedisConfig{URL: url, Prefix: "cphorme:test:"})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Reset())

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("sid", []byte("payload"), time.Minute))
	val, err = s.Get("sid")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	require.NoError(t, s.Delete("sid"))
	val, err = s.Get("sid")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Reset())
	val, err = s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, val)
}
