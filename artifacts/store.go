// Package artifacts persists exported model files and run records in Redis so
// downstream consumers can pick them up without touching the runner's
// filesystem.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vizactor/engine"
)

const (
	artifactKeyPrefix = "vizactor:artifact:"
	recordKeyPrefix   = "vizactor:run:"
)

// Store is a thin Redis-backed artifact repository. A nil Store is valid and
// means persistence is disabled; every method no-ops.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore connects to redisURL ("redis://host:port/db"). An empty URL
// returns a nil, disabled store.
func NewStore(redisURL string, ttl time.Duration) (*Store, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}, nil
}

// Enabled reports whether the store actually persists anything.
func (s *Store) Enabled() bool { return s != nil && s.rdb != nil }

// PutArtifact stores the raw artifact bytes and returns the location string
// recorded in the run result.
func (s *Store) PutArtifact(ctx context.Context, runID string, data []byte) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	key := artifactKeyPrefix + runID
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store artifact %s: %w", runID, err)
	}
	return "redis://" + key, nil
}

// PutRecord stores the run's result record as JSON.
func (s *Store) PutRecord(ctx context.Context, runID string, result *engine.WorkflowResult) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	key := recordKeyPrefix + runID
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store record %s: %w", runID, err)
	}
	return nil
}

// GetRecord loads a stored run record; (nil, nil) when absent.
func (s *Store) GetRecord(ctx context.Context, runID string) (*engine.WorkflowResult, error) {
	if !s.Enabled() {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, recordKeyPrefix+runID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result engine.WorkflowResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Close()
}
