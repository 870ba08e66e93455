package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// Store persists full session records keyed by (group, session). Load never
// fails on a missing key: an unseen session gets a fresh default record, so
// reads double as upserts from the caller's point of view.
type Store interface {
	Load(ctx context.Context, groupID, sessionID string) (*state.Record, error)
	Save(ctx context.Context, rec *state.Record) error
}

// Options selects and configures a backend.
type Options struct {
	Backend   string // "file" or "redis"
	DataDir   string
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// New builds the configured backend.
func New(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "file":
		return NewFileStore(opts.DataDir)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPass,
			DB:       opts.RedisDB,
		})
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func validateKey(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("empty session id")
	}
	return nil
}
