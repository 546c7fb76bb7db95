// Package storage provides the backends that hold portal sessions.
package storage

import (
	"fmt"
	"time"

	"cphorme/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/postgres/v3"
)

type StorageType string

const (
	StorageTypeMemory   StorageType = "memory"
	StorageTypePostgres StorageType = "postgres"
	StorageTypeRedis    StorageType = "redis"
)

const sessionTable = "portal_sessions"

type Factory struct {
	config config.SessionConfig
}

func NewFactory(config config.SessionConfig) *Factory {
	return &Factory{
		config: config,
	}
}

// CreateStorage returns the configured session storage. The memory type
// returns a nil storage, which makes fiber's session store keep sessions in
// process memory.
func (f *Factory) CreateStorage() (fiber.Storage, error) {
	switch StorageType(f.config.Storage) {
	case StorageTypeMemory, "":
		return nil, nil

	case StorageTypePostgres:
		if f.config.PostgresURL == "" {
			return nil, fmt.Errorf("postgres session storage requires SESSION_POSTGRES_URL")
		}
		return newPostgresStorage(f.config.PostgresURL)

	case StorageTypeRedis:
		if f.config.RedisURL == "" {
			return nil, fmt.Errorf("redis session storage requires SESSION_REDIS_URL")
		}
		return NewRedisStorage(RedisConfig{URL: f.config.RedisURL, Prefix: "cphorme:session:"})

	default:
		return nil, fmt.Errorf("unknown session storage type: %s", f.config.Storage)
	}
}

// newPostgresStorage turns the panic postgres.New raises on an unreachable
// database into an error.
func newPostgresStorage(uri string) (storage fiber.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to connect postgres session storage: %v", r)
		}
	}()

	return postgres.New(postgres.Config{
		ConnectionURI: uri,
		Table:         sessionTable,
		Reset:         false,
		GCInterval:    10 * time.Minute,
	}), nil
}
