package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bondline/internal/reputation/models"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
)

const proofKeyPrefix = "bondline:proof:"

// RedisProofStore keeps applied fingerprints in Redis so that replicas share
// one replay guard. SETNX makes the insert the atomic presence check. An
// insert made inside a transaction that later rolls back is deleted again.
type RedisProofStore struct {
	client *redis.Client
}

func NewRedisProofStore(client *redis.Client) *RedisProofStore {
	return &RedisProofStore{client: client}
}

func (s *RedisProofStore) Insert(ctx context.Context, p *models.ProofRecord) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode proof record: %w", err)
	}
	key := proofKeyPrefix + string(p.Fingerprint)
	ok, err := s.client.SetNX(ctx, key, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("insert proof record: %w", err)
	}
	if !ok {
		return fmt.Errorf("proof %s: %w", p.Fingerprint, sentinel.ErrConflict)
	}
	tx.OnRollback(ctx, func() {
		_ = s.client.Del(context.WithoutCancel(ctx), key).Err()
	})
	return nil
}

func (s *RedisProofStore) Exists(ctx context.Context, fp models.Fingerprint) (bool, error) {
	n, err := s.client.Exists(ctx, proofKeyPrefix+string(fp)).Result()
	if err != nil {
		return false, fmt.Errorf("check proof record: %w", err)
	}
	return n > 0, nil
}

// Find returns the stored proof record.
func (s *RedisProofStore) Find(ctx context.Context, fp models.Fingerprint) (*models.ProofRecord, error) {
	raw, err := s.client.Get(ctx, proofKeyPrefix+string(fp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("proof %s: %w", fp, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find proof record: %w", err)
	}
	var p models.ProofRecord
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode proof record: %w", err)
	}
	return &p, nil
}
