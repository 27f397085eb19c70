package xquota

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xquota/pkg/observability/xlog"
)

// guardOptions Guard 内部配置
type guardOptions struct {
	logger         xlog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	clock          func() time.Time
	onExceeded     func(err *LimitError)
}

// Option Guard 配置选项
type Option func(*guardOptions)

func defaultOptions() *guardOptions {
	return &guardOptions{
		logger: xlog.Nop(),
	}
}

// WithLogger 设置日志记录器，nil 表示不记录
func WithLogger(logger xlog.Logger) Option {
	return func(o *guardOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider
// 不设置时不收集指标
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *guardOptions) {
		o.meterProvider = mp
	}
}

// WithTracerProvider 设置 OpenTelemetry TracerProvider
// 不设置时使用全局 TracerProvider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *guardOptions) {
		o.tracerProvider = tp
	}
}

// WithClock 替换时间源，解析出的所有限额都使用该时间源
func WithClock(clock func() time.Time) Option {
	return func(o *guardOptions) {
		o.clock = clock
	}
}

// WithOnExceeded 设置限额触发时的回调，两个阶段都会调用
func WithOnExceeded(fn func(err *LimitError)) Option {
	return func(o *guardOptions) {
		o.onExceeded = fn
	}
}
