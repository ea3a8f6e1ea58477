package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	suggestKeyPrefix  = "suggest"
	consumedKeyPrefix = "context:consumed:"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return newCacheRepository(redis.Client(), redis.logger)
}

func newCacheRepository(client *redis.Client, logger *zap.Logger) *cacheRepository {
	return &cacheRepository{
		client: client,
		logger: logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// SuggestKey - ключ подсказок, регистр и крайние пробелы запроса не различаются
func SuggestKey(provider, text string) string {
	return fmt.Sprintf("%s:%s:%s", suggestKeyPrefix, provider, strings.ToLower(strings.TrimSpace(text)))
}

// GetSuggestions получает подсказки из кеша
func (r *cacheRepository) GetSuggestions(ctx context.Context, provider, text string) (*domain.SuggestLocationsResult, error) {
	data, err := r.Get(ctx, SuggestKey(provider, text))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var result domain.SuggestLocationsResult
	if err := json.Unmarshal(data, &result); err != nil {
		r.logger.Error("Failed to unmarshal suggestions from cache", zap.Error(err))
		return nil, fmt.Errorf("unmarshal suggestions: %w", err)
	}

	return &result, nil
}

// SetSuggestions сохраняет подсказки в кеше
func (r *cacheRepository) SetSuggestions(ctx context.Context, provider, text string, result *domain.SuggestLocationsResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("Failed to marshal suggestions", zap.Error(err))
		return fmt.Errorf("marshal suggestions: %w", err)
	}

	return r.Set(ctx, SuggestKey(provider, text), data, ttl)
}

// MarkContextConsumed отмечает токен через SETNX
func (r *cacheRepository) MarkContextConsumed(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, consumedKeyPrefix+token, time.Now().Unix(), ttl).Result()
	if err != nil {
		r.logger.Error("Failed to mark context consumed", zap.Error(err))
		return false, fmt.Errorf("cache setnx error: %w", err)
	}

	if !ok {
		r.logger.Debug("Context already consumed")
	}
	return ok, nil
}
