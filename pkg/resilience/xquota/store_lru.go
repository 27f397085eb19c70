package xquota

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidSize 表示 LRUStore 容量无效
var ErrInvalidSize = errors.New("xquota: lru store size must be positive")

// LRUStore 有容量上限的进程内存储
//
// 超出容量时淘汰最久未访问的限额记录，过期记录在 Get 时惰性删除。
// 与 CacheStore 不同，写入同步可见且不会被准入策略拒绝。
type LRUStore struct {
	cache *lru.Cache[string, memoryItem]
	clock func() time.Time
}

// LRUOption LRUStore 选项
type LRUOption func(*LRUStore)

// WithLRUClock 替换 LRUStore 的时间源
func WithLRUClock(clock func() time.Time) LRUOption {
	return func(s *LRUStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewLRUStore 创建最多保存 size 条记录的存储
func NewLRUStore(size int, opts ...LRUOption) (*LRUStore, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	cache, err := lru.New[string, memoryItem](size)
	if err != nil {
		return nil, fmt.Errorf("xquota: create lru store: %w", err)
	}
	s := &LRUStore{cache: cache, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get 实现 Store
func (s *LRUStore) Get(_ context.Context, key string) (string, error) {
	item, ok := s.cache.Get(key)
	if !ok {
		return "", nil
	}
	if item.expired(s.clock()) {
		s.cache.Remove(key)
		return "", nil
	}
	return item.value, nil
}

// Set 实现 Store
func (s *LRUStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expireAt = s.clock().Add(ttl)
	}
	s.cache.Add(key, item)
	return nil
}

// Len 当前记录数，可能包含尚未清理的过期记录
func (s *LRUStore) Len() int {
	return s.cache.Len()
}

// Purge 清空所有记录
func (s *LRUStore) Purge() {
	s.cache.Purge()
}

var _ Store = (*LRUStore)(nil)
