package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Retryer 重试执行器，底层使用 avast/retry-go/v5
// 零值不可用，使用 NewRetryer 创建。Retryer 创建后只读，可并发使用。
type Retryer struct {
	attempts int
	backoff  BackoffPolicy
	onRetry  func(attempt int, err error)
}

// RetryerOption 执行器配置选项
type RetryerOption func(*Retryer)

// WithAttempts 设置最大尝试次数（包含首次尝试），小于 1 时按 1 处理
func WithAttempts(n int) RetryerOption {
	return func(r *Retryer) {
		r.attempts = max(n, 1)
	}
}

// WithBackoff 设置退避策略
func WithBackoff(p BackoffPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.backoff = p
		}
	}
}

// WithOnRetry 设置失败回调，每次尝试失败后调用（含最后一次），attempt 从 1 开始
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 创建重试执行器，默认 3 次尝试、指数退避
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		attempts: 3,
		backoff:  NewExponentialBackoff(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attempts 返回最大尝试次数
func (r *Retryer) Attempts() int {
	return r.attempts
}

// Do 执行带重试的操作，返回最后一次的错误
// ctx 取消后不再重试。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return ErrNilRetryer
	}
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(r.options(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 执行带重试且有返回值的操作
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNilRetryer
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	return retry.NewWithData[T](r.options(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

func (r *Retryer) options(ctx context.Context) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(max(r.attempts, 1))), //nolint:gosec // 已保证为正数
		retry.RetryIf(IsRetryable),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return r.backoff.NextDelay(toInt(n))
		}),
		retry.LastErrorOnly(true),
	}
	if r.onRetry != nil {
		// retry-go 的 n 从 0 开始
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			r.onRetry(toInt(n)+1, err)
		}))
	}
	return opts
}

func toInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}
