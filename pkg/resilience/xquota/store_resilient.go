package xquota

import (
	"context"
	"time"

	"github.com/omeyang/xquota/pkg/resilience/xbreaker"
	"github.com/omeyang/xquota/pkg/resilience/xretry"
)

// ResilientStore 为远端 Store 增加重试和熔断
//
// 重试在外层、熔断在内层：每次尝试都经过熔断器统计，熔断打开后
// 返回的 *xbreaker.BreakerError 不可重试，调用立即失败而不再访问后端。
// 限额记录本身是幂等写入（整条覆盖），重试 Set 不会重复计数。
type ResilientStore struct {
	store   Store
	retryer *xretry.Retryer
	breaker *xbreaker.Breaker
}

// ResilientOption ResilientStore 选项
type ResilientOption func(*ResilientStore)

// WithStoreRetryer 设置重试执行器
func WithStoreRetryer(r *xretry.Retryer) ResilientOption {
	return func(s *ResilientStore) {
		if r != nil {
			s.retryer = r
		}
	}
}

// WithStoreBreaker 设置熔断器
func WithStoreBreaker(b *xbreaker.Breaker) ResilientOption {
	return func(s *ResilientStore) {
		if b != nil {
			s.breaker = b
		}
	}
}

// NewResilientStore 包装 store
// 默认 3 次尝试、指数退避，连续 5 次失败熔断 30 秒。
func NewResilientStore(store Store, opts ...ResilientOption) (*ResilientStore, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	s := &ResilientStore{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.retryer == nil {
		s.retryer = xretry.NewRetryer()
	}
	if s.breaker == nil {
		s.breaker = xbreaker.NewBreaker("xquota-store")
	}
	return s, nil
}

// Get 实现 Store
func (s *ResilientStore) Get(ctx context.Context, key string) (string, error) {
	return xretry.DoWithResult(ctx, s.retryer, func(ctx context.Context) (string, error) {
		return xbreaker.Execute(ctx, s.breaker, func() (string, error) {
			return s.store.Get(ctx, key)
		})
	})
}

// Set 实现 Store
func (s *ResilientStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.retryer.Do(ctx, func(ctx context.Context) error {
		return s.breaker.Do(ctx, func() error {
			return s.store.Set(ctx, key, value, ttl)
		})
	})
}

// Breaker 返回内部熔断器，便于读取状态
func (s *ResilientStore) Breaker() *xbreaker.Breaker {
	return s.breaker
}

// Unwrap 返回被包装的 Store
func (s *ResilientStore) Unwrap() Store {
	return s.store
}

var _ Store = (*ResilientStore)(nil)
