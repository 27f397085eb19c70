package xquota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis 的共享存储
// 多个进程共享同一组限额窗口时使用。写入为 SET key value EX ttl，最后写入者生效。
type RedisStore struct {
	rdb       redis.UniversalClient
	keyPrefix string
}

// RedisOption RedisStore 选项
type RedisOption func(*RedisStore)

// WithRedisKeyPrefix 在限额名称前追加 Redis 键前缀，例如 "app:"
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, ErrNilStore
	}
	s := &RedisStore{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get 实现 Store，键不存在（redis.Nil）时返回空字符串
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("xquota: redis get %q: %w", key, err)
	}
	return v, nil
}

// Set 实现 Store
// ttl <= 0 时写入永久键。
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("xquota: redis set %q: %w", key, err)
	}
	return nil
}

// Client 返回底层 Redis 客户端
func (s *RedisStore) Client() redis.UniversalClient {
	return s.rdb
}

var _ Store = (*RedisStore)(nil)
