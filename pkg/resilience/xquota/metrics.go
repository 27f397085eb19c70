package xquota

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称
const (
	metricNameChecksTotal   = "xquota.checks.total"
	metricNameExceededTotal = "xquota.exceeded.total"
	metricNameDelayDuration = "xquota.delay.duration"
	metricNameStoreDuration = "xquota.store.duration"
)

// Metrics 限额指标收集器
type Metrics struct {
	checksTotal   metric.Int64Counter
	exceededTotal metric.Int64Counter
	delayDuration metric.Float64Histogram
	storeDuration metric.Float64Histogram
}

// NewMetrics 创建指标收集器
// meterProvider 为 nil 时返回 nil（不收集指标）
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("xquota",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	checksTotal, err := meter.Int64Counter(
		metricNameChecksTotal,
		metric.WithDescription("限额检查次数"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	exceededTotal, err := meter.Int64Counter(
		metricNameExceededTotal,
		metric.WithDescription("触发限额的次数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	delayDuration, err := meter.Float64Histogram(
		metricNameDelayDuration,
		metric.WithDescription("因限额而延迟的时间"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 300, 900, 3600),
	)
	if err != nil {
		return nil, err
	}

	storeDuration, err := meter.Float64Histogram(
		metricNameStoreDuration,
		metric.WithDescription("Store 读写耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0,
		),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		checksTotal:   checksTotal,
		exceededTotal: exceededTotal,
		delayDuration: delayDuration,
		storeDuration: storeDuration,
	}, nil
}

// RecordCheck 记录一次阶段检查
func (m *Metrics) RecordCheck(ctx context.Context, phase Phase) {
	if m == nil {
		return
	}
	m.checksTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("phase", string(phase)),
	))
}

// RecordExceeded 记录一次限额触发
func (m *Metrics) RecordExceeded(ctx context.Context, phase Phase, limit string) {
	if m == nil {
		return
	}
	m.exceededTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("phase", string(phase)),
		attribute.String("limit", limit),
	))
}

// RecordDelay 记录一次 sleep 延迟
func (m *Metrics) RecordDelay(ctx context.Context, limit string, d time.Duration) {
	if m == nil {
		return
	}
	m.delayDuration.Record(context.WithoutCancel(ctx), d.Seconds(), metric.WithAttributes(
		attribute.String("limit", limit),
	))
}

// RecordStore 记录一次 Store 调用
func (m *Metrics) RecordStore(ctx context.Context, op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.Record(context.WithoutCancel(ctx), d.Seconds(), metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("error", err != nil),
	))
}

// instrumentedStore 为 Store 调用记录耗时
type instrumentedStore struct {
	Store
	metrics *Metrics
}

func instrumentStore(s Store, m *Metrics) Store {
	if m == nil {
		return s
	}
	return &instrumentedStore{Store: s, metrics: m}
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	v, err := s.Store.Get(ctx, key)
	s.metrics.RecordStore(ctx, "get", err, time.Since(start))
	return v, err
}

func (s *instrumentedStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	start := time.Now()
	err := s.Store.Set(ctx, key, value, ttl)
	s.metrics.RecordStore(ctx, "set", err, time.Since(start))
	return err
}
