package repository

import (
	"context"
	"time"

	"github.com/efa-transit/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetSuggestions получает подсказки из кеша, nil при промахе
	GetSuggestions(ctx context.Context, provider, text string) (*domain.SuggestLocationsResult, error)

	// SetSuggestions сохраняет подсказки в кеше
	SetSuggestions(ctx context.Context, provider, text string, result *domain.SuggestLocationsResult, ttl time.Duration) error

	// MarkContextConsumed атомарно отмечает токен продолжения использованным.
	// Возвращает false, если токен уже был использован.
	MarkContextConsumed(ctx context.Context, token string, ttl time.Duration) (bool, error)
}
