package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"theater-warehouse/internal/repositories"
)

// BaseService - общий доступ к кешу для сервисов чтения.
type BaseService struct {
	cache  repositories.CacheRepositoryInterface
	logger *zap.Logger
}

func NewBaseService(cache repositories.CacheRepositoryInterface, logger *zap.Logger) *BaseService {
	return &BaseService{cache: cache, logger: logger}
}

func (s *BaseService) CacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		s.logger.Warn("повреждённые данные в кеше", zap.String("key", key), zap.Error(err))
		return false
	}
	s.logger.Debug("данные получены из кеша", zap.String("key", key))
	return true
}

func (s *BaseService) CacheSet(ctx context.Context, key string, data interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	serialized, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("не удалось сериализовать данные для кеша", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, serialized, ttl); err != nil {
		s.logger.Warn("не удалось записать в кеш", zap.String("key", key), zap.Error(err))
	}
}

func (s *BaseService) CacheInvalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("не удалось сбросить кеш", zap.Strings("keys", keys), zap.Error(err))
	}
}

// CacheVersion возвращает текущую версию набора ключей, создавая её при первом обращении.
// false означает, что кеш недоступен и кешировать нельзя.
func (s *BaseService) CacheVersion(ctx context.Context, versionKey string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, versionKey)
	if err == nil {
		version, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.logger.Warn("повреждённая версия в кеше", zap.String("key", versionKey), zap.Error(err))
			return 0, false
		}
		return version, true
	}
	if !errors.Is(err, repositories.ErrCacheMiss) {
		return 0, false
	}
	version, err := s.cache.Incr(ctx, versionKey)
	if err != nil {
		s.logger.Warn("не удалось создать версию кеша", zap.String("key", versionKey), zap.Error(err))
		return 0, false
	}
	return version, true
}

// CacheBumpVersion делает недействительными все записи, сохранённые под прежней версией.
func (s *BaseService) CacheBumpVersion(ctx context.Context, versionKey string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, versionKey); err != nil {
		s.logger.Warn("не удалось сменить версию кеша", zap.String("key", versionKey), zap.Error(err))
	}
}
