package xquota

import (
	"errors"
	"fmt"
	"time"
)

// 预定义错误，使用 errors.Is 进行比较
var (
	// ErrRateLimitReached 表示请求触发了限额
	ErrRateLimitReached = errors.New("xquota: rate limit reached")

	// ErrDuplicateLimit 表示解析后的限额名称重复（配置错误）
	ErrDuplicateLimit = errors.New("xquota: duplicate limit name")

	// ErrInvalidThreshold 表示阈值不在 [0, 1] 范围内（配置错误）
	ErrInvalidThreshold = errors.New("xquota: invalid threshold")

	// ErrInvalidLimit 表示限额模板构建参数无效（配置错误）
	ErrInvalidLimit = errors.New("xquota: invalid limit")

	// ErrCorruptRecord 表示 Store 中的记录无法反序列化
	ErrCorruptRecord = errors.New("xquota: unable to decode store record")

	// ErrStoreRead 表示 Store 读取失败
	ErrStoreRead = errors.New("xquota: store read failed")

	// ErrStoreWrite 表示 Store 写入失败
	ErrStoreWrite = errors.New("xquota: store was unable to update the limit")

	// ErrAlreadyUpdated 表示同一实例被重复 Update
	ErrAlreadyUpdated = errors.New("xquota: limit already updated from store")

	// ErrNilStore 表示 RateLimited 未提供 Store
	ErrNilStore = errors.New("xquota: nil store")
)

// Phase 触发限额的阶段
type Phase string

const (
	// PhasePreflight 发送前检查，请求未发出
	PhasePreflight Phase = "preflight"

	// PhaseResponse 收到响应后检查，请求已经发出
	PhaseResponse Phase = "response"
)

// LimitError 限额触发错误
//
// 携带触发的限额快照以及阶段信息，调用方可据此区分请求是否已经发出，
// 并读取剩余秒数决定何时重试。
type LimitError struct {
	// Limit 触发的限额实例（请求级副本）
	Limit *Limit
	// Name 限额完整名称
	Name string
	// Allow 窗口内允许的命中数
	Allow int
	// Hits 当前命中数
	Hits int
	// ReleaseInSeconds 窗口长度
	ReleaseInSeconds int
	// RemainingSeconds 距离释放的秒数
	RemainingSeconds int
	// Phase 触发阶段
	Phase Phase
}

func newLimitError(l *Limit, phase Phase) *LimitError {
	return &LimitError{
		Limit:            l,
		Name:             l.Name(),
		Allow:            l.Allow(),
		Hits:             l.Hits(),
		ReleaseInSeconds: l.ReleaseInSeconds(),
		RemainingSeconds: l.RemainingSeconds(),
		Phase:            phase,
	}
}

// Error 实现 error 接口
func (e *LimitError) Error() string {
	return fmt.Sprintf("xquota: request rate limit reached (name: %s, phase: %s, remaining: %ds)",
		e.Name, e.Phase, e.RemainingSeconds)
}

// Is 支持 errors.Is 检查
func (e *LimitError) Is(target error) bool {
	return target == ErrRateLimitReached
}

// Unwrap 返回底层错误
func (e *LimitError) Unwrap() error {
	return ErrRateLimitReached
}

// RetryAfter 建议的等待时间，不小于 0
func (e *LimitError) RetryAfter() time.Duration {
	return time.Duration(max(e.RemainingSeconds, 0)) * time.Second
}

// IsRateLimited 检查错误是否为限额错误
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimitReached)
}

// IsConfigError 检查错误是否为配置错误（重复名称、阈值、模板参数）
// 配置错误不应重试。
func IsConfigError(err error) bool {
	return errors.Is(err, ErrDuplicateLimit) ||
		errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrInvalidLimit)
}

// RetryAfter 从错误中读取建议的等待时间
// 典型用法是队列任务捕获限额错误后按剩余秒数重新入队。
func RetryAfter(err error) (time.Duration, bool) {
	var limitErr *LimitError
	if errors.As(err, &limitErr) {
		return limitErr.RetryAfter(), true
	}
	return 0, false
}
