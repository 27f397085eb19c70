package xquota

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xquota/pkg/observability/xlog"
)

// RateLimited 声明限额的调用方（连接器、请求）需要实现的能力
type RateLimited interface {
	// ResolveLimits 返回限额模板，每次调用可返回同一切片，Guard 不会修改它
	ResolveLimits() []*Limit
	// ResolveStore 返回限额状态的存储，应在多个请求之间共享
	ResolveStore() Store
}

// LimitPrefixer 自定义限额前缀；未实现时使用 ScopeName
type LimitPrefixer interface {
	LimitPrefix() string
}

// TooManyAttemptsHandler 替换默认的 429 检测逻辑
type TooManyAttemptsHandler interface {
	HandleTooManyAttempts(resp Response, l *Limit)
}

// TooManyAttemptsDetection 返回 false 时关闭自动 429 检测，不再合成 too_many_attempts_limit
type TooManyAttemptsDetection interface {
	DetectTooManyAttempts() bool
}

// RateLimitingToggle 返回 false 时跳过所有限额检查
type RateLimitingToggle interface {
	RateLimitingEnabled() bool
}

// Guard 请求前后的限额编排器
//
// Before 在发送前检查已达到的限额，After 在收到响应后命中、保存所有限额。
// Guard 本身无状态，可在多个 goroutine 间共享；每次调用都从模板重新解析限额实例。
type Guard struct {
	logger     xlog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	clock      func() time.Time
	onExceeded func(err *LimitError)
}

// NewGuard 创建编排器
func NewGuard(opts ...Option) (*Guard, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	metrics, err := NewMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("xquota: create metrics: %w", err)
	}

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Guard{
		logger:     o.logger,
		metrics:    metrics,
		tracer:     tp.Tracer("xquota"),
		clock:      o.clock,
		onExceeded: o.onExceeded,
	}, nil
}

// Enabled 判断 rl 是否启用限额
func (g *Guard) Enabled(rl RateLimited) bool {
	if t, ok := rl.(RateLimitingToggle); ok {
		return t.RateLimitingEnabled()
	}
	return true
}

// Limits 解析 rl 本次请求使用的限额实例
func (g *Guard) Limits(rl RateLimited) ([]*Limit, error) {
	var opts []ConfigureOption
	if g.clock != nil {
		opts = append(opts, WithConfigureClock(g.clock))
	}
	return ConfigureLimits(rl.ResolveLimits(), prefixFor(rl), tooManyFor(rl), opts...)
}

func prefixFor(rl RateLimited) string {
	if p, ok := rl.(LimitPrefixer); ok {
		if prefix := p.LimitPrefix(); prefix != "" {
			return prefix
		}
	}
	return ScopeName(rl)
}

func tooManyFor(rl RateLimited) ResponseHandler {
	if d, ok := rl.(TooManyAttemptsDetection); ok && !d.DetectTooManyAttempts() {
		return nil
	}
	if h, ok := rl.(TooManyAttemptsHandler); ok {
		return h.HandleTooManyAttempts
	}
	return DetectTooManyAttempts
}

func (g *Guard) store(rl RateLimited) (Store, error) {
	s := rl.ResolveStore()
	if s == nil {
		return nil, ErrNilStore
	}
	return instrumentStore(s, g.metrics), nil
}

// ExceededLimit 返回第一个达到自身阈值的限额，没有时返回 nil
// 每个被检查的限额都会从 Store 同步，但不会写回。
func (g *Guard) ExceededLimit(ctx context.Context, rl RateLimited) (*Limit, error) {
	return g.exceededLimit(ctx, rl, nil)
}

// ExceededLimitAt 与 ExceededLimit 相同，但所有限额使用同一个阈值
func (g *Guard) ExceededLimitAt(ctx context.Context, rl RateLimited, threshold float64) (*Limit, error) {
	return g.exceededLimit(ctx, rl, &threshold)
}

// HasReachedRateLimit 判断是否有限额已达到，不发送请求
func (g *Guard) HasReachedRateLimit(ctx context.Context, rl RateLimited) (bool, error) {
	l, err := g.ExceededLimit(ctx, rl)
	return l != nil, err
}

func (g *Guard) exceededLimit(ctx context.Context, rl RateLimited, threshold *float64) (*Limit, error) {
	// 阈值属于配置错误，必须在访问 Store 之前返回
	if threshold != nil && (*threshold < 0 || *threshold > 1) {
		return nil, fmt.Errorf("%w: got %v, want a value between 0 and 1", ErrInvalidThreshold, *threshold)
	}
	limits, err := g.Limits(rl)
	if err != nil {
		return nil, err
	}
	store, err := g.store(rl)
	if err != nil {
		return nil, err
	}

	for _, l := range limits {
		if err := l.Update(ctx, store); err != nil {
			return nil, err
		}
		var reached bool
		if threshold == nil {
			reached, err = l.HasReachedLimit()
		} else {
			reached, err = l.HasReachedLimitAt(*threshold)
		}
		if err != nil {
			return nil, err
		}
		if reached {
			return l, nil
		}
	}
	return nil, nil
}

// Before 发送前检查
//
// 第一个已达到阈值的限额决定结果：未配置 Sleep 时返回 PhasePreflight 的 *LimitError，
// 请求不应发出；配置了 Sleep 时返回需要追加到请求已有延迟上的时长。
func (g *Guard) Before(ctx context.Context, rl RateLimited) (time.Duration, error) {
	if !g.Enabled(rl) {
		return 0, nil
	}

	ctx, span := g.tracer.Start(ctx, "xquota.preflight")
	defer span.End()
	g.metrics.RecordCheck(ctx, PhasePreflight)

	l, err := g.ExceededLimit(ctx, rl)
	if err != nil {
		recordSpanError(span, err)
		return 0, err
	}
	if l == nil {
		return 0, nil
	}

	if !l.ShouldSleep() {
		limitErr := newLimitError(l, PhasePreflight)
		g.reportExceeded(ctx, span, limitErr)
		return 0, limitErr
	}

	delay := time.Duration(max(l.RemainingSeconds(), 0)) * time.Second
	span.SetAttributes(
		attribute.String("xquota.limit", l.Name()),
		attribute.Int64("xquota.delay_ms", delay.Milliseconds()),
	)
	g.metrics.RecordDelay(ctx, l.Name(), delay)
	g.logger.Info(ctx, "rate limit delay scheduled",
		xlog.LimitName(l.Name()),
		xlog.Hits(l.Hits()),
		xlog.Allow(l.Allow()),
		xlog.Duration(delay),
	)
	return delay, nil
}

// After 收到响应后的处理
//
// 按声明顺序处理每个限额：Update → 响应驱动型调用回调，计数型 Hit → Save。
// 所有限额都会写回，即使前面的限额已被标记超限。第一个被手动标记超限的限额
// 以 PhaseResponse 的 *LimitError 返回，此时请求已经发出。
func (g *Guard) After(ctx context.Context, rl RateLimited, resp Response) error {
	if !g.Enabled(rl) {
		return nil
	}

	ctx, span := g.tracer.Start(ctx, "xquota.response")
	defer span.End()
	g.metrics.RecordCheck(ctx, PhaseResponse)

	return g.after(ctx, span, rl, resp)
}

func (g *Guard) after(ctx context.Context, span trace.Span, rl RateLimited, resp Response) error {
	limits, err := g.Limits(rl)
	if err != nil {
		recordSpanError(span, err)
		return err
	}
	store, err := g.store(rl)
	if err != nil {
		recordSpanError(span, err)
		return err
	}
	g.logger.Debug(ctx, "limits resolved", xlog.Count(len(limits)))

	var exceeded *Limit
	for _, l := range limits {
		if err := l.Update(ctx, store); err != nil {
			recordSpanError(span, err)
			return err
		}

		if l.UsesResponse() {
			l.HandleResponse(resp)
		} else {
			l.Hit()
		}

		if exceeded == nil && l.WasManuallyExceeded() {
			exceeded = l
		}

		// 响应驱动型限额在窗口边界重置时不计命中，否则 allow=1 会被直接判为超限
		resetHits := 1
		if l.UsesResponse() {
			resetHits = 0
		}
		if err := l.SaveWithReset(ctx, store, resetHits); err != nil {
			recordSpanError(span, err)
			return err
		}
		g.logger.Debug(ctx, "limit saved",
			xlog.LimitName(l.Name()),
			xlog.Hits(l.Hits()),
			xlog.RemainingSeconds(l.RemainingSeconds()),
		)
	}

	if exceeded == nil {
		return nil
	}
	limitErr := newLimitError(exceeded, PhaseResponse)
	g.reportExceeded(ctx, span, limitErr)
	return limitErr
}

func (g *Guard) reportExceeded(ctx context.Context, span trace.Span, err *LimitError) {
	g.metrics.RecordExceeded(ctx, err.Phase, err.Name)
	g.logger.Warn(ctx, "rate limit reached",
		xlog.LimitName(err.Name),
		xlog.Hits(err.Hits),
		xlog.Allow(err.Allow),
		xlog.RemainingSeconds(err.RemainingSeconds),
		xlog.Phase(string(err.Phase)),
	)
	span.SetAttributes(
		attribute.String("xquota.limit", err.Name),
		attribute.Int("xquota.remaining_seconds", err.RemainingSeconds),
	)
	span.SetStatus(codes.Error, err.Error())
	if g.onExceeded != nil {
		g.onExceeded(err)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
