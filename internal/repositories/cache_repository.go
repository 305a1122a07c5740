package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

var ErrCacheMiss = errors.New("ключ не найден в кеше")

type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
}

type memoryCacheItem struct {
	value     string
	expiresAt time.Time
}

// MemoryCacheRepository - кеш в памяти процесса, используется когда Redis не настроен.
type MemoryCacheRepository struct {
	mu    sync.Mutex
	items map[string]memoryCacheItem
	now   func() time.Time
}

func NewMemoryCacheRepository() CacheRepositoryInterface {
	return &MemoryCacheRepository{items: make(map[string]memoryCacheItem), now: time.Now}
}

func (r *MemoryCacheRepository) expired(item memoryCacheItem) bool {
	return !item.expiresAt.IsZero() && !r.now().Before(item.expiresAt)
}

func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		str = fmt.Sprint(v)
	}

	item := memoryCacheItem{value: str}
	if expiration > 0 {
		item.expiresAt = r.now().Add(expiration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = item
	return nil
}

func (r *MemoryCacheRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key]
	if !ok || r.expired(item) {
		delete(r.items, key)
		return "", ErrCacheMiss
	}
	return item.value, nil
}

func (r *MemoryCacheRepository) Del(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		delete(r.items, key)
	}
	return nil
}

func (r *MemoryCacheRepository) Incr(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[key]
	if !ok || r.expired(item) {
		item = memoryCacheItem{value: "0"}
	}
	current, err := strconv.ParseInt(item.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("значение ключа %s не является числом: %w", key, err)
	}
	current++
	item.value = strconv.FormatInt(current, 10)
	r.items[key] = item
	return current, nil
}

func (r *MemoryCacheRepository) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key]
	if !ok || r.expired(item) {
		return false, nil
	}
	item.expiresAt = r.now().Add(expiration)
	r.items[key] = item
	return true, nil
}
