package xlog

import (
	"log/slog"
	"time"
)

// 标准字段 key
const (
	KeyError            = "error"
	KeyDuration         = "duration"
	KeyComponent        = "component"
	KeyStatusCode       = "status_code"
	KeyLimit            = "limit"
	KeyHits             = "hits"
	KeyAllow            = "allow"
	KeyRemainingSeconds = "remaining_seconds"
	KeyPhase            = "phase"
	KeyCount            = "count"
)

// Err 错误属性，err 为 nil 时返回空属性（被 slog 忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Component 组件名称
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// StatusCode 响应状态码
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// LimitName 限额完整名称
func LimitName(name string) slog.Attr {
	return slog.String(KeyLimit, name)
}

// Hits 当前命中数
func Hits(n int) slog.Attr {
	return slog.Int(KeyHits, n)
}

// Allow 窗口允许的命中数
func Allow(n int) slog.Attr {
	return slog.Int(KeyAllow, n)
}

// RemainingSeconds 距离窗口释放的秒数
func RemainingSeconds(n int) slog.Attr {
	return slog.Int(KeyRemainingSeconds, n)
}

// Phase 检查阶段
func Phase(p string) slog.Attr {
	return slog.String(KeyPhase, p)
}

// Count 计数
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}
