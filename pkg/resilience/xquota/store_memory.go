package xquota

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore 进程内存储
// 过期记录在 Get 时惰性删除，适用于单进程和测试。
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	clock func() time.Time
}

type memoryItem struct {
	value    string
	expireAt time.Time // 零值表示不过期
}

// MemoryOption MemoryStore 选项
type MemoryOption func(*MemoryStore)

// WithMemoryClock 替换 MemoryStore 的时间源
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]memoryItem),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get 实现 Store
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if item.expired(s.clock()) {
		s.mu.Lock()
		// 重新检查，避免删除并发写入的新值
		if cur, ok := s.items[key]; ok && cur.expired(s.clock()) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return "", nil
	}
	return item.value, nil
}

// Set 实现 Store
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expireAt = s.clock().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

// Snapshot 返回未过期记录的副本
func (s *MemoryStore) Snapshot() map[string]string {
	now := s.clock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.items))
	for k, item := range s.items {
		if !item.expired(now) {
			out[k] = item.value
		}
	}
	return out
}

// Len 返回当前记录数（包含尚未清理的过期记录）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Reset 清空所有记录
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	clear(s.items)
	s.mu.Unlock()
}

// Load 批量写入不过期的记录，主要用于测试预置状态
func (s *MemoryStore) Load(records map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range maps.All(records) {
		s.items[k] = memoryItem{value: v}
	}
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expireAt.IsZero() && !now.Before(i.expireAt)
}

var _ Store = (*MemoryStore)(nil)
