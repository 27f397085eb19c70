package xquota

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultPrefix 未指定作用域时使用的键前缀
const DefaultPrefix = "xquota"

// TooManyAttemptsLimitName 自动 429 检测合成限额的固定名称
const TooManyAttemptsLimitName = "too_many_attempts_limit"

// customWindowSeconds Custom 限额的默认窗口
const customWindowSeconds = 60

// ResponseHandler 响应驱动型限额的回调
// 每次收到响应时以 (resp, limit) 调用，由回调决定是否调用 MarkExceeded。
type ResponseHandler func(resp Response, l *Limit)

// Limit 单个具名配额窗口的状态机
//
// 生命周期：模板声明一次 → 每个请求 Clone 出独立实例 → Update 从 Store 同步
// → Hit/MarkExceeded → Save 写回。模板本身不会被修改。
//
// Limit 实例不是并发安全的，也不应在请求之间共享。
type Limit struct {
	prefix    string
	name      string
	hits      int
	allow     int
	threshold float64

	releaseIn int    // 窗口长度（秒）
	windowKey string // 用于默认名称的窗口标识，可为空

	expiry    int64
	hasExpiry bool
	exceeded  bool
	sleep     bool
	updated   bool

	handler ResponseHandler
	clock   func() time.Time
	err     error // 构建阶段的错误，由 Validate/ConfigureLimits 返回
}

// Allow 创建允许 requests 次命中的计数型限额
func Allow(requests int) *Limit {
	l := &Limit{
		prefix:    DefaultPrefix,
		allow:     requests,
		threshold: 1,
		clock:     time.Now,
	}
	if requests < 0 {
		l.err = fmt.Errorf("%w: allow cannot be negative", ErrInvalidLimit)
	}
	return l
}

// Custom 创建响应驱动型限额
// allow 初始为 1，窗口 60 秒，默认名称为 "<prefix>:1_every_custom"。
func Custom(handler ResponseHandler) *Limit {
	l := Allow(1).EverySecondsKeyed(customWindowSeconds, "custom")
	l.handler = handler
	if handler == nil {
		l.setBuildErr(fmt.Errorf("%w: custom limit requires a response handler", ErrInvalidLimit))
	}
	return l
}

// WithThreshold 设置触发阈值，取值范围 [0, 1]
// 例如 0.85 表示命中数达到 85% 时即视为达到限额。越界值在评估时报错。
func (l *Limit) WithThreshold(threshold float64) *Limit {
	l.threshold = threshold
	return l
}

// Named 设置显式名称
func (l *Limit) Named(name string) *Limit {
	l.name = name
	return l
}

// WithPrefix 设置键前缀
func (l *Limit) WithPrefix(prefix string) *Limit {
	l.prefix = prefix
	return l
}

// Sleep 达到限额时延迟请求而不是返回错误
func (l *Limit) Sleep() *Limit {
	l.sleep = true
	return l
}

// WithClock 替换时间源，主要用于测试
func (l *Limit) WithClock(clock func() time.Time) *Limit {
	if clock != nil {
		l.clock = clock
	}
	return l
}

// Validate 返回构建阶段记录的错误
func (l *Limit) Validate() error {
	return l.err
}

// HasReachedLimit 使用实例自身阈值判断是否达到限额
func (l *Limit) HasReachedLimit() (bool, error) {
	return l.HasReachedLimitAt(l.threshold)
}

// HasReachedLimitAt 判断 hits >= threshold*allow
func (l *Limit) HasReachedLimitAt(threshold float64) (bool, error) {
	if threshold < 0 || threshold > 1 {
		return false, fmt.Errorf("%w: got %v, want a value between 0 and 1 (e.g. 0.85 for 85%%)",
			ErrInvalidThreshold, threshold)
	}
	return float64(l.hits) >= threshold*float64(l.allow), nil
}

// Hit 命中一次
func (l *Limit) Hit() *Limit {
	return l.HitN(1)
}

// HitN 命中 n 次；已被手动标记超限的限额保持冻结。
func (l *Limit) HitN(n int) *Limit {
	if !l.exceeded {
		l.hits += n
	}
	return l
}

// MarkExceeded 手动标记超限，hits 固定为 allow
func (l *Limit) MarkExceeded() {
	l.exceeded = true
	l.hits = l.allow
}

// MarkExceededFor 手动标记超限，并在 seconds 秒后释放
// 429 + Retry-After 即通过此方法转换为限额状态。
func (l *Limit) MarkExceededFor(seconds int) {
	l.MarkExceeded()
	l.SetExpiryTimestamp(l.now() + int64(seconds))
}

// WasManuallyExceeded 是否被手动标记超限
func (l *Limit) WasManuallyExceeded() bool {
	return l.exceeded
}

// Name 返回带前缀的完整名称
//
//	显式名称：<prefix>:<name>
//	默认名称：<prefix>:<allow>_every_<windowKey 或窗口秒数>
func (l *Limit) Name() string {
	if l.name != "" {
		return l.prefix + ":" + l.name
	}
	window := l.windowKey
	if window == "" {
		window = fmt.Sprint(l.releaseIn)
	}
	return fmt.Sprintf("%s:%d_every_%s", l.prefix, l.allow, window)
}

// ExpiryTimestamp 返回窗口过期的 unix 秒
// 首次访问时惰性计算为 now + 窗口长度，之后保持不变。
func (l *Limit) ExpiryTimestamp() int64 {
	if !l.hasExpiry {
		l.expiry = l.now() + int64(l.releaseIn)
		l.hasExpiry = true
	}
	return l.expiry
}

// SetExpiryTimestamp 设置过期时间，用于从 Store 恢复或手动覆盖
func (l *Limit) SetExpiryTimestamp(ts int64) *Limit {
	l.expiry = ts
	l.hasExpiry = true
	return l
}

// ResetLimit 清空命中数、超限标记和过期时间
func (l *Limit) ResetLimit() *Limit {
	l.expiry = 0
	l.hasExpiry = false
	l.hits = 0
	l.exceeded = false
	return l
}

// RemainingSeconds 距离窗口释放的秒数，窗口已过期且未刷新时可能为负
func (l *Limit) RemainingSeconds() int {
	return int(l.ExpiryTimestamp() - l.now())
}

// ReleaseInSeconds 窗口长度（秒）
func (l *Limit) ReleaseInSeconds() int { return l.releaseIn }

// Hits 当前窗口命中数
func (l *Limit) Hits() int { return l.hits }

// Allow 窗口内允许的命中数
func (l *Limit) Allow() int { return l.allow }

// Threshold 触发阈值
func (l *Limit) Threshold() float64 { return l.threshold }

// Prefix 键前缀
func (l *Limit) Prefix() string { return l.prefix }

// ShouldSleep 超限时是否延迟而不是报错
func (l *Limit) ShouldSleep() bool { return l.sleep }

// UsesResponse 是否为响应驱动型限额
func (l *Limit) UsesResponse() bool { return l.handler != nil }

// HandleResponse 把响应交给响应驱动型限额的回调处理
func (l *Limit) HandleResponse(resp Response) {
	if l.handler == nil {
		return
	}
	l.handler(resp, l)
}

// Clone 返回独立副本
// 请求级实例必须从模板克隆，避免不同请求之间共享 hits/exceeded 状态。
func (l *Limit) Clone() *Limit {
	c := *l
	c.updated = false
	return &c
}

// Update 从 Store 同步当前窗口的状态
//
// 每个实例最多调用一次：命中数以累加方式导入，重复调用会重复计数，
// 因此第二次调用返回 ErrAlreadyUpdated。
func (l *Limit) Update(ctx context.Context, store Store) error {
	if l.updated {
		return fmt.Errorf("%w: %s", ErrAlreadyUpdated, l.Name())
	}
	l.updated = true

	raw, err := store.Get(ctx, l.Name())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreRead, l.Name(), err)
	}
	// 空记录视为全新窗口
	if raw == "" {
		return nil
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptRecord, l.Name(), err)
	}
	if rec.Timestamp == nil || rec.Hits == nil {
		return fmt.Errorf("%w: %s: record does not contain the timestamp or hits", ErrCorruptRecord, l.Name())
	}
	if rec.Allow == nil && l.UsesResponse() {
		return fmt.Errorf("%w: %s: response driven limit requires the allow in the record", ErrCorruptRecord, l.Name())
	}

	// 窗口已过期：不导入旧命中数，下次 Save 会写入新窗口。
	// 对于没有 TTL 的 Store（如文件）这一步尤其重要。
	if l.now() > *rec.Timestamp {
		return nil
	}

	l.SetExpiryTimestamp(*rec.Timestamp)
	l.HitN(*rec.Hits)

	if l.UsesResponse() {
		l.allow = *rec.Allow
	}
	return nil
}

// Save 把当前状态写回 Store，窗口即将过期时重置为 1 次命中
func (l *Limit) Save(ctx context.Context, store Store) error {
	return l.SaveWithReset(ctx, store, 1)
}

// SaveWithReset 把当前状态写回 Store
// 剩余秒数小于 1 时先重置窗口并命中 resetHits 次，避免写入零或负 TTL 的记录。
func (l *Limit) SaveWithReset(ctx context.Context, store Store, resetHits int) error {
	if l.RemainingSeconds() < 1 {
		l.ResetLimit().HitN(resetHits)
	}

	rec := record{
		Timestamp: ptr(l.ExpiryTimestamp()),
		Hits:      ptr(l.hits),
	}
	if l.UsesResponse() {
		rec.Allow = ptr(l.allow)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreWrite, l.Name(), err)
	}

	ttl := time.Duration(l.RemainingSeconds()) * time.Second
	if err := store.Set(ctx, l.Name(), string(data), ttl); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreWrite, l.Name(), err)
	}
	return nil
}

func (l *Limit) now() int64 {
	return l.clockTime().Unix()
}

// setBuildErr 只保留第一个构建错误
func (l *Limit) setBuildErr(err error) {
	if l.err == nil {
		l.err = err
	}
}

// record Store 中的序列化格式
// 使用指针区分"缺失"与"零值"。
type record struct {
	Timestamp *int64 `json:"timestamp"`
	Hits      *int   `json:"hits"`
	Allow     *int   `json:"allow,omitempty"`
}

func decodeRecord(raw string) (record, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return record{}, err
	}
	return rec, nil
}

func ptr[T any](v T) *T { return &v }
