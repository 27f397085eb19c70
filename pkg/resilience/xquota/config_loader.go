package xquota

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/omeyang/xquota/pkg/config/xconf"
	"github.com/omeyang/xquota/pkg/observability/xlog"
)

// LoadConfig 从 xconf 的 path 路径加载并验证限额配置
func LoadConfig(cfg xconf.Config, path string) (Config, error) {
	var c Config
	if err := cfg.Unmarshal(path, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ConfiguredLimits 由配置文件驱动的 RateLimited 实现
//
// 配置以原子方式整体替换：Reload 或 Watch 触发的重载失败时保留旧配置。
// 每次 ResolveLimits 都根据当前配置重新构建模板，日历型窗口因此始终相对请求时刻计算。
type ConfiguredLimits struct {
	cfg    xconf.Config
	path   string
	store  Store
	clock  func() time.Time
	logger xlog.Logger

	current atomic.Pointer[Config]
}

// ConfiguredOption ConfiguredLimits 选项
type ConfiguredOption func(*ConfiguredLimits)

// WithConfiguredClock 设置构建模板使用的时间源
func WithConfiguredClock(clock func() time.Time) ConfiguredOption {
	return func(c *ConfiguredLimits) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithConfiguredLogger 设置重载日志
func WithConfiguredLogger(logger xlog.Logger) ConfiguredOption {
	return func(c *ConfiguredLimits) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConfiguredLimits 加载 cfg 中 path 路径的限额配置
func NewConfiguredLimits(cfg xconf.Config, path string, store Store, opts ...ConfiguredOption) (*ConfiguredLimits, error) {
	if cfg == nil {
		return nil, errors.New("xquota: nil config")
	}
	if store == nil {
		return nil, ErrNilStore
	}

	c := &ConfiguredLimits{
		cfg:    cfg,
		path:   path,
		store:  store,
		clock:  time.Now,
		logger: xlog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Config 返回当前生效的配置
func (c *ConfiguredLimits) Config() Config {
	return *c.current.Load()
}

// ResolveLimits 实现 RateLimited
func (c *ConfiguredLimits) ResolveLimits() []*Limit {
	limits, err := c.Config().TemplatesAt(c.clock)
	if err != nil {
		// 加载时已验证，这里只会在时间源异常时发生
		c.logger.Error(context.Background(), "build limit templates failed", xlog.Err(err))
		return nil
	}
	return limits
}

// ResolveStore 实现 RateLimited
func (c *ConfiguredLimits) ResolveStore() Store {
	return c.store
}

// LimitPrefix 实现 LimitPrefixer
// 配置未设置 prefix 时使用 DefaultPrefix，不回退到类型名。
func (c *ConfiguredLimits) LimitPrefix() string {
	if p := c.Config().Prefix; p != "" {
		return p
	}
	return DefaultPrefix
}

// DetectTooManyAttempts 实现 TooManyAttemptsDetection
func (c *ConfiguredLimits) DetectTooManyAttempts() bool {
	return c.Config().DetectionEnabled()
}

// Reload 重新读取配置文件并替换当前配置
// 从字节创建的 xconf.Config 只重新解析已有内容。
func (c *ConfiguredLimits) Reload() error {
	if err := c.cfg.Reload(); err != nil && !errors.Is(err, xconf.ErrNotReloadable) {
		return err
	}
	return c.load()
}

// Watch 监视配置文件，变更时自动替换当前配置
// 返回的 Watcher 需要调用 Stop 释放资源。
func (c *ConfiguredLimits) Watch(ctx context.Context, opts ...xconf.WatchOption) (*xconf.Watcher, error) {
	return xconf.Watch(ctx, c.cfg, func(_ xconf.Config, err error) {
		if err == nil {
			err = c.load()
		}
		if err != nil {
			c.logger.Warn(ctx, "quota config reload failed, keeping previous config", xlog.Err(err))
			return
		}
		c.logger.Info(ctx, "quota config reloaded", xlog.Count(len(c.Config().Limits)))
	}, opts...)
}

func (c *ConfiguredLimits) load() error {
	conf, err := LoadConfig(c.cfg, c.path)
	if err != nil {
		return fmt.Errorf("xquota: load config %q: %w", c.path, err)
	}
	c.current.Store(&conf)
	return nil
}

var (
	_ RateLimited              = (*ConfiguredLimits)(nil)
	_ LimitPrefixer            = (*ConfiguredLimits)(nil)
	_ TooManyAttemptsDetection = (*ConfiguredLimits)(nil)
)
