package xkeylock

import "errors"

var (
	// ErrInvalidShardCount 表示分片数不是 2 的幂或超出上限。
	ErrInvalidShardCount = errors.New("xkeylock: invalid shard count")

	// ErrInvalidKey 表示 key 为空。
	ErrInvalidKey = errors.New("xkeylock: key must not be empty")
)
