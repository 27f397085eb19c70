package xquota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// ErrCacheRejected 表示 ristretto 拒绝了写入（准入策略或缓冲区竞争）
var ErrCacheRejected = errors.New("xquota: cache rejected the write")

// CacheStore 基于 ristretto 的进程内存储
//
// 与 MemoryStore 相比有容量上限和淘汰策略，适合限额名称数量不可控的场景。
// ristretto 写入是异步的，Set 返回前调用 Wait 保证随后的 Get 可见。
type CacheStore struct {
	cache *ristretto.Cache[string, string]
	owned bool
}

// CacheOption CacheStore 选项
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	numCounters int64
	maxCost     int64
	bufferItems int64
}

func defaultCacheOptions() *cacheOptions {
	return &cacheOptions{
		numCounters: 1e5,
		maxCost:     1 << 24, // 16MB
		bufferItems: 64,
	}
}

// WithCacheNumCounters 设置频率统计计数器数量，建议为预期条目数的 10 倍
func WithCacheNumCounters(n int64) CacheOption {
	return func(o *cacheOptions) {
		if n > 0 {
			o.numCounters = n
		}
	}
}

// WithCacheMaxCost 设置最大总开销（字节）
func WithCacheMaxCost(n int64) CacheOption {
	return func(o *cacheOptions) {
		if n > 0 {
			o.maxCost = n
		}
	}
}

// NewCacheStore 创建 ristretto 存储
func NewCacheStore(opts ...CacheOption) (*CacheStore, error) {
	o := defaultCacheOptions()
	for _, opt := range opts {
		opt(o)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: o.numCounters,
		MaxCost:     o.maxCost,
		BufferItems: o.bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("xquota: create cache store: %w", err)
	}
	return &CacheStore{cache: cache, owned: true}, nil
}

// NewCacheStoreFromClient 复用已有的 ristretto 实例，Close 不会关闭它
func NewCacheStoreFromClient(cache *ristretto.Cache[string, string]) (*CacheStore, error) {
	if cache == nil {
		return nil, ErrNilStore
	}
	return &CacheStore{cache: cache}, nil
}

// Get 实现 Store
func (s *CacheStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", nil
	}
	return v, nil
}

// Set 实现 Store
func (s *CacheStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var ok bool
	if ttl > 0 {
		ok = s.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	} else {
		ok = s.cache.Set(key, value, int64(len(value)))
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCacheRejected, key)
	}
	s.cache.Wait()
	return nil
}

// Client 返回底层 ristretto 实例
func (s *CacheStore) Client() *ristretto.Cache[string, string] {
	return s.cache
}

// Close 关闭自行创建的 ristretto 实例
func (s *CacheStore) Close() error {
	if s.owned {
		s.cache.Close()
	}
	return nil
}

var _ Store = (*CacheStore)(nil)
