package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
)

// DefaultKey holds the live no-show model
const DefaultKey = "noshow:model:current"

// kv is the subset of the go-redis client the store uses
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisModelStore persists the trained model as JSON under one key
type RedisModelStore struct {
	client kv
	key    string
}

var _ providers.ModelStore = (*RedisModelStore)(nil)

// NewRedisModelStore creates a model store. An empty key means DefaultKey.
func NewRedisModelStore(client kv, key string) *RedisModelStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisModelStore{client: client, key: key}
}

// Save replaces the stored model. It never expires.
func (s *RedisModelStore) Save(ctx context.Context, model *entities.TrainedModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

// Load returns the stored model or providers.ErrModelNotFound
func (s *RedisModelStore) Load(ctx context.Context) (*entities.TrainedModel, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	var model entities.TrainedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to decode stored model: %w", err)
	}
	return &model, nil
}
