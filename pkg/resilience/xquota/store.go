package xquota

import (
	"context"
	"time"
)

// Store 限额记录的键值存储
//
// 记录值是不透明字符串（JSON 编码的窗口状态），由 Limit 负责编解码。
// 实现必须是并发安全的。
type Store interface {
	// Get 返回 key 对应的值，不存在时返回空字符串和 nil 错误。
	Get(ctx context.Context, key string) (string, error)

	// Set 写入 key，ttl 为到期时间，ttl <= 0 表示不过期。
	// 写入失败必须返回错误。
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// StoreFunc 函数适配器，便于在测试中注入读写行为
type StoreFunc struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key, value string, ttl time.Duration) error
}

// Get 实现 Store
func (f StoreFunc) Get(ctx context.Context, key string) (string, error) {
	if f.GetFunc == nil {
		return "", nil
	}
	return f.GetFunc(ctx, key)
}

// Set 实现 Store
func (f StoreFunc) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.SetFunc == nil {
		return nil
	}
	return f.SetFunc(ctx, key, value, ttl)
}

var _ Store = StoreFunc{}
