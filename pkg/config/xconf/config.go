package xconf

import (
	"errors"

	"github.com/knadh/koanf/v2"
)

// 预定义错误。
var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 配置文件读取失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化到结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNotReloadable 从字节创建的配置不能 Reload 或 Watch。
	ErrNotReloadable = errors.New("xconf: config created from bytes cannot be reloaded")
)

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口，所有方法并发安全。
type Config interface {
	// Client 返回当前的 koanf 实例，Reload 后返回新实例。
	Client() *koanf.Koanf

	// Unmarshal 把 path 下的配置反序列化到 target，path 为空表示整个配置。
	Unmarshal(path string, target any) error

	// Exists 判断 path 是否存在。
	Exists(path string) bool

	// Reload 重新读取配置文件，失败时保留旧配置。
	Reload() error

	// Path 配置文件路径，从字节创建时为空。
	Path() string

	// Format 配置格式。
	Format() Format
}

// Option 配置选项。
type Option func(*options)

type options struct {
	delim string
	tag   string
}

func defaultOptions() *options {
	return &options{delim: ".", tag: "koanf"}
}

// WithDelim 设置键分隔符，默认 "."。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置结构体标签名，默认 "koanf"。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}
