package xkeylock

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Locker 按 key 分片的互斥锁，并发安全。
type Locker struct {
	shards []chan struct{}
	mask   uint64
}

// New 创建 Locker，分片数无效时返回 ErrInvalidShardCount。
func New(opts ...Option) (*Locker, error) {
	o := options{shardCount: defaultShardCount}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	shards := make([]chan struct{}, o.shardCount)
	for i := range shards {
		shards[i] = make(chan struct{}, 1)
	}
	return &Locker{
		shards: shards,
		mask:   uint64(o.shardCount - 1), //nolint:gosec // validate 保证为正
	}, nil
}

// Lock 阻塞获取 key 所在分片的锁，ctx 取消时返回 ctx.Err()。
// 返回的 unlock 幂等。
func (l *Locker) Lock(ctx context.Context, key string) (unlock func(), err error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	ch := l.shard(key)

	// 已取消的 ctx 不应抢到锁
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case ch <- struct{}{}:
		return releaser(ch), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryLock 非阻塞获取锁，锁被占用时返回 false。
func (l *Locker) TryLock(key string) (unlock func(), ok bool) {
	if key == "" {
		return nil, false
	}
	ch := l.shard(key)
	select {
	case ch <- struct{}{}:
		return releaser(ch), true
	default:
		return nil, false
	}
}

// ShardCount 返回分片数量。
func (l *Locker) ShardCount() int {
	return len(l.shards)
}

func (l *Locker) shard(key string) chan struct{} {
	return l.shards[xxhash.Sum64String(key)&l.mask]
}

func releaser(ch chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}
}
