package xquota

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// 配置中的窗口名称
const (
	WindowMinute        = "minute"
	WindowFiveMinutes   = "five_minutes"
	WindowThirtyMinutes = "thirty_minutes"
	WindowHour          = "hour"
	WindowSixHours      = "six_hours"
	WindowTwelveHours   = "twelve_hours"
	WindowDay           = "day"
	WindowMidnight      = "midnight"
	WindowEndOfMonth    = "end_of_month"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// LimitConfig 单个限额的配置
type LimitConfig struct {
	// Name 显式名称，为空时使用默认名称
	Name string `json:"name" yaml:"name" koanf:"name"`

	// Allow 窗口内允许的命中数
	Allow int `json:"allow" yaml:"allow" koanf:"allow"`

	// Threshold 触发阈值，为空时为 1
	Threshold *float64 `json:"threshold" yaml:"threshold" koanf:"threshold"`

	// Every 固定窗口长度，如 "1m"、"90s"；与 Window 二选一
	Every time.Duration `json:"every" yaml:"every" koanf:"every"`

	// Window 具名窗口：minute、five_minutes、thirty_minutes、hour、six_hours、
	// twelve_hours、day、midnight、end_of_month 或 "HH:MM"
	Window string `json:"window" yaml:"window" koanf:"window"`

	// Sleep 达到限额时延迟请求而不是报错
	Sleep bool `json:"sleep" yaml:"sleep" koanf:"sleep"`
}

// Config 一组限额的配置
type Config struct {
	// Prefix 限额键前缀
	Prefix string `json:"prefix" yaml:"prefix" koanf:"prefix"`

	// DetectTooManyAttempts 是否启用自动 429 检测，为空时启用
	DetectTooManyAttempts *bool `json:"detect_too_many_attempts" yaml:"detect_too_many_attempts" koanf:"detect_too_many_attempts"`

	// Limits 限额列表，按声明顺序检查
	Limits []LimitConfig `json:"limits" yaml:"limits" koanf:"limits"`
}

// Validate 验证配置
func (c Config) Validate() error {
	var errs []error
	for i, lc := range c.Limits {
		if err := lc.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("limits[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	// 名称冲突同样是配置错误，加载时提前发现
	limits, err := c.Templates()
	if err != nil {
		return err
	}
	_, err = ConfigureLimits(limits, c.Prefix, nil)
	return err
}

// DetectionEnabled 返回是否启用自动 429 检测
func (c Config) DetectionEnabled() bool {
	return c.DetectTooManyAttempts == nil || *c.DetectTooManyAttempts
}

// Templates 构建限额模板
// 日历型窗口（midnight、end_of_month、HH:MM）相对构建时刻计算，
// 长期持有的调用方应在每次请求时重新构建。
func (c Config) Templates() ([]*Limit, error) {
	return c.TemplatesAt(time.Now)
}

// TemplatesAt 使用指定时间源构建限额模板
func (c Config) TemplatesAt(clock func() time.Time) ([]*Limit, error) {
	limits := make([]*Limit, 0, len(c.Limits))
	for i, lc := range c.Limits {
		l, err := lc.template(clock)
		if err != nil {
			return nil, fmt.Errorf("limits[%d]: %w", i, err)
		}
		limits = append(limits, l)
	}
	return limits, nil
}

// Validate 验证单个限额配置
func (lc LimitConfig) Validate() error {
	if lc.Allow < 0 {
		return fmt.Errorf("%w: allow cannot be negative, got %d", ErrInvalidLimit, lc.Allow)
	}
	if lc.Threshold != nil && (*lc.Threshold < 0 || *lc.Threshold > 1) {
		return fmt.Errorf("%w: got %v, want a value between 0 and 1", ErrInvalidThreshold, *lc.Threshold)
	}
	if lc.Every < 0 {
		return fmt.Errorf("%w: every cannot be negative, got %s", ErrInvalidLimit, lc.Every)
	}
	if lc.Every > 0 && lc.Window != "" {
		return fmt.Errorf("%w: every and window are mutually exclusive", ErrInvalidLimit)
	}
	if lc.Every == 0 && lc.Window == "" {
		return fmt.Errorf("%w: one of every or window is required", ErrInvalidLimit)
	}
	if lc.Window != "" && !validWindow(lc.Window) {
		return fmt.Errorf("%w: unknown window %q", ErrInvalidLimit, lc.Window)
	}
	return nil
}

// Template 构建限额模板
func (lc LimitConfig) Template() (*Limit, error) {
	return lc.template(time.Now)
}

func (lc LimitConfig) template(clock func() time.Time) (*Limit, error) {
	if err := lc.Validate(); err != nil {
		return nil, err
	}

	l := Allow(lc.Allow).WithClock(clock)
	if lc.Every > 0 {
		l.Every(lc.Every)
	} else {
		applyWindow(l, lc.Window)
	}
	if lc.Name != "" {
		l.Named(lc.Name)
	}
	if lc.Threshold != nil {
		l.WithThreshold(*lc.Threshold)
	}
	if lc.Sleep {
		l.Sleep()
	}
	return l, l.Validate()
}

func validWindow(w string) bool {
	switch w {
	case WindowMinute, WindowFiveMinutes, WindowThirtyMinutes, WindowHour,
		WindowSixHours, WindowTwelveHours, WindowDay, WindowMidnight, WindowEndOfMonth:
		return true
	}
	return timeOfDayPattern.MatchString(w)
}

func applyWindow(l *Limit, w string) {
	switch w {
	case WindowMinute:
		l.EveryMinute()
	case WindowFiveMinutes:
		l.EveryFiveMinutes()
	case WindowThirtyMinutes:
		l.EveryThirtyMinutes()
	case WindowHour:
		l.EveryHour()
	case WindowSixHours:
		l.EverySixHours()
	case WindowTwelveHours:
		l.EveryTwelveHours()
	case WindowDay:
		l.EveryDay()
	case WindowMidnight:
		l.UntilMidnightTonight()
	case WindowEndOfMonth:
		l.UntilEndOfMonth()
	default:
		l.EveryDayUntil(w)
	}
}
