// Package xkeylock 提供按 key 分片的进程内互斥锁。
//
// key 经 xxhash 映射到固定数量的分片，每个分片是一个容量为 1 的 channel，
// 因此加锁可以响应 context 取消。不同 key 可能落在同一分片而互相等待，
// 分片数越多冲突越少。锁不可重入。
//
//	kl, _ := xkeylock.New(xkeylock.WithShardCount(64))
//	unlock, err := kl.Lock(ctx, "quota:3_every_60")
//	if err != nil {
//	    return err
//	}
//	defer unlock()
package xkeylock
