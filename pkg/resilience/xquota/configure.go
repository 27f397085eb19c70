package xquota

import (
	"fmt"
	"reflect"
	"time"
)

// ConfigureOption ConfigureLimits 选项
type ConfigureOption func(*configureOptions)

type configureOptions struct {
	clock func() time.Time
}

// WithConfigureClock 为所有解析出的限额设置时间源
func WithConfigureClock(clock func() time.Time) ConfigureOption {
	return func(o *configureOptions) {
		o.clock = clock
	}
}

// ConfigureLimits 把限额模板解析为一次请求使用的独立实例
//
// 步骤：过滤 nil → 检查构建错误与阈值 → 逐个 Clone → tooMany 非 nil 时追加
// 名为 too_many_attempts_limit 的响应驱动型限额 → prefix 非空时统一设置前缀 →
// 检查最终名称是否重复。
//
// 所有错误都是配置错误，在任何 Store 访问之前返回。模板本身不会被修改。
func ConfigureLimits(templates []*Limit, prefix string, tooMany ResponseHandler, opts ...ConfigureOption) ([]*Limit, error) {
	o := &configureOptions{}
	for _, opt := range opts {
		opt(o)
	}

	limits := make([]*Limit, 0, len(templates)+1)
	for _, tpl := range templates {
		if tpl == nil {
			continue
		}
		if err := tpl.Validate(); err != nil {
			return nil, err
		}
		if tpl.threshold < 0 || tpl.threshold > 1 {
			return nil, fmt.Errorf("%w: %s: got %v, want a value between 0 and 1",
				ErrInvalidThreshold, tpl.Name(), tpl.threshold)
		}
		limits = append(limits, tpl.Clone())
	}

	if tooMany != nil {
		limits = append(limits, Custom(tooMany).Named(TooManyAttemptsLimitName))
	}

	for _, l := range limits {
		if prefix != "" {
			l.WithPrefix(prefix)
		}
		if o.clock != nil {
			l.WithClock(o.clock)
		}
	}

	seen := make(map[string]struct{}, len(limits))
	for _, l := range limits {
		name := l.Name()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w %q, consider using a custom name on the limit", ErrDuplicateLimit, name)
		}
		seen[name] = struct{}{}
	}
	return limits, nil
}

// ScopeName 返回 v 的短类型名，用作默认前缀
// 指针会被解引用；匿名类型或 nil 返回 DefaultPrefix。
func ScopeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return DefaultPrefix
	}
	return t.Name()
}
