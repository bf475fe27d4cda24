package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by KV.Get when the key has never been written
var ErrNotFound = errors.New("key not found")

// KV is the durable key-value store backing the favorites list and the intro flag
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Health(ctx context.Context) error
	Close() error
}

// KVOptions carries everything NewKV may need to open a backend
type KVOptions struct {
	Backend    string
	BadgerPath string
	Redis      *RedisClient
	DB         *DB
}

// NewKV opens the backend named by opts.Backend
func NewKV(opts KVOptions, logger zerolog.Logger) (KV, error) {
	switch opts.Backend {
	case "badger", "":
		return NewBadgerKV(opts.BadgerPath, logger)
	case "redis":
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis backend selected but no redis client configured")
		}
		return NewRedisKV(opts.Redis), nil
	case "postgres":
		if opts.DB == nil {
			return nil, fmt.Errorf("postgres backend selected but no database configured")
		}
		return NewPostgresKV(opts.DB), nil
	case "memory":
		logger.Warn().Msg("Using in-memory store, favorites will not survive a restart")
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
