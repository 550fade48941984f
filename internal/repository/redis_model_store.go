package repository

import (
	"context"
	"errors"
	"fmt"

	"StockSight/internal/domain/models"
	"StockSight/internal/domain/repository"
	"StockSight/pkg/cache"
)

// RedisModelStore keeps trained model artifacts in Redis as JSON blobs.
// SET is atomic, so a Load during retraining sees either the old artifact or
// the new one, never a torn write. Artifacts do not expire.
type RedisModelStore struct {
	cache cache.Service
}

// NewRedisModelStore creates a Redis-backed ModelStore.
func NewRedisModelStore(c cache.Service) repository.ModelStore {
	return &RedisModelStore{cache: c}
}

func modelKey(symbol string) string {
	return cache.GenerateKey("model", symbol)
}

func (s *RedisModelStore) Save(ctx context.Context, symbol string, m *models.TrainedModel) error {
	if err := s.cache.Set(ctx, modelKey(symbol), m, 0); err != nil {
		return fmt.Errorf("save model %s: %w", symbol, err)
	}
	return nil
}

func (s *RedisModelStore) Load(ctx context.Context, symbol string) (*models.TrainedModel, error) {
	var m models.TrainedModel
	err := s.cache.Get(ctx, modelKey(symbol), &m)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, repository.ErrModelNotFound
		}
		return nil, fmt.Errorf("load model %s: %w", symbol, err)
	}
	return &m, nil
}
