// Package xretry 提供基于 avast/retry-go/v5 的重试执行器。
//
// Retryer 组合最大尝试次数与退避策略，错误实现 RetryableError 且
// Retryable() 返回 false 时立即停止重试。
//
//	r := xretry.NewRetryer(
//	    xretry.WithAttempts(3),
//	    xretry.WithBackoff(xretry.NewExponentialBackoff()),
//	)
//	err := r.Do(ctx, func(ctx context.Context) error {
//	    return store.Set(ctx, key, value, ttl)
//	})
package xretry
