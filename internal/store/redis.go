package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/projectflow-ai/projectflow/internal/state"
)

const redisKeyPrefix = "projectflow:"

// RedisStore keeps one JSON value per session. Group-scoped sessions are
// namespaced into the key so tenants never collide.
type RedisStore struct {
	client *redis.Client
	logger *log.Logger
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		logger: log.New(log.Writer(), "[STORE] ", log.LstdFlags),
	}
}

func redisKey(groupID, sessionID string) string {
	if groupID == "" {
		return redisKeyPrefix + "state:" + sessionID
	}
	return redisKeyPrefix + "group:" + groupID + ":state:" + sessionID
}

func (r *RedisStore) Load(ctx context.Context, groupID, sessionID string) (*state.Record, error) {
	if err := validateKey(sessionID); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, redisKey(groupID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return state.NewRecord(groupID, sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: get: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		r.logger.Printf("corrupted record %s/%s, starting fresh: %v", groupID, sessionID, err)
		return state.NewRecord(groupID, sessionID), nil
	}
	rec, err := state.Decode(state.Flatten(raw))
	if err != nil {
		r.logger.Printf("undecodable record %s/%s, starting fresh: %v", groupID, sessionID, err)
		return state.NewRecord(groupID, sessionID), nil
	}
	rec.GroupID = groupID
	rec.SessionID = sessionID
	return rec, nil
}

func (r *RedisStore) Save(ctx context.Context, rec *state.Record) error {
	if err := validateKey(rec.SessionID); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis store: marshal: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(rec.GroupID, rec.SessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis store: set: %w", err)
	}
	return nil
}
