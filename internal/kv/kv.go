// Package kv is the blob persistence the analytics history is written through.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/K0NGR3SS/minewatch/internal/config"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open connects the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (Store, error) {
	log = log.WithComponent("kv")

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case "memory":
		store = NewMemory()
	case "file":
		store, err = NewFile(cfg.File.Dir)
	case "redis":
		store, err = NewRedis(ctx, cfg.Redis, log)
	case "minio":
		store, err = NewMinIO(ctx, cfg.MinIO)
	case "postgres":
		store, err = NewPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}

	log.Debug().Str("backend", cfg.Backend).Str("key_prefix", cfg.KeyPrefix).Msg("store opened")

	if cfg.KeyPrefix != "" {
		store = WithPrefix(store, cfg.KeyPrefix)
	}
	return store, nil
}

type prefixed struct {
	Store
	prefix string
}

// WithPrefix namespaces every key, so several devices can share one backend.
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key string, value []byte) error {
	return p.Store.Put(ctx, p.prefix+key, value)
}
