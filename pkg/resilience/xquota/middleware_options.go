package xquota

import (
	"context"
	"net/http"
	"time"
)

// WaitFunc 等待 d 后返回，ctx 取消时提前返回 ctx.Err()
type WaitFunc func(ctx context.Context, d time.Duration) error

// MiddlewareOption HTTP Transport 与 gRPC 拦截器的共用选项
type MiddlewareOption func(*middlewareOptions)

type middlewareOptions struct {
	base    http.RoundTripper
	sources []RateLimited
	wait    WaitFunc
}

func defaultMiddlewareOptions() *middlewareOptions {
	return &middlewareOptions{
		base: http.DefaultTransport,
		wait: sleepContext,
	}
}

// WithBase 设置实际发送请求的 RoundTripper，默认 http.DefaultTransport
// 仅对 NewTransport 有效。
func WithBase(rt http.RoundTripper) MiddlewareOption {
	return func(o *middlewareOptions) {
		if rt != nil {
			o.base = rt
		}
	}
}

// WithSources 追加限额来源
// 例如连接器与请求各自声明限额时，两者的限额集合独立解析、使用各自的前缀。
func WithSources(sources ...RateLimited) MiddlewareOption {
	return func(o *middlewareOptions) {
		for _, s := range sources {
			if s != nil {
				o.sources = append(o.sources, s)
			}
		}
	}
}

// WithWait 替换等待实现，主要用于测试
func WithWait(fn WaitFunc) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.wait = fn
		}
	}
}

type delayKey struct{}

// ContextWithDelay 在 ctx 中携带请求已有的延迟
// Before 计算出的限额延迟会累加到该值上，而不是替换它。
func ContextWithDelay(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, delayKey{}, d)
}

// DelayFromContext 读取 ContextWithDelay 设置的延迟
func DelayFromContext(ctx context.Context) time.Duration {
	d, _ := ctx.Value(delayKey{}).(time.Duration)
	return max(d, 0)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// preflight 依次执行所有来源的 Before，累加延迟后等待
func preflight(ctx context.Context, guard *Guard, sources []RateLimited, wait WaitFunc) error {
	delay := DelayFromContext(ctx)
	for _, src := range sources {
		d, err := guard.Before(ctx, src)
		if err != nil {
			return err
		}
		delay += d
	}
	if delay <= 0 {
		return nil
	}
	return wait(ctx, delay)
}

// postResponse 对所有来源执行 After，返回第一个错误
func postResponse(ctx context.Context, guard *Guard, sources []RateLimited, resp Response) error {
	var first error
	for _, src := range sources {
		if err := guard.After(ctx, src, resp); err != nil && first == nil {
			first = err
		}
	}
	return first
}
