package xquota

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HeaderRetryAfter Retry-After 头部名称
const HeaderRetryAfter = "Retry-After"

// retryAfterDateTime 部分 API 返回的非标准日期格式，按 UTC 解析
const retryAfterDateTime = time.DateTime

// ParseRetryAfter 把 Retry-After 值解析为距离 now 的秒数
//
// 支持整数秒、HTTP-date（RFC 1123 等）以及 "2006-01-02 15:04:05"（UTC）。
// 空值、无法解析或不在未来的时间返回 false，调用方应保留默认窗口。
func ParseRetryAfter(value string, now time.Time) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(value); err == nil {
		if n <= 0 {
			return 0, false
		}
		return n, true
	}

	if t, err := http.ParseTime(value); err == nil {
		return secondsUntil(t, now)
	}
	if t, err := time.ParseInLocation(retryAfterDateTime, value, time.UTC); err == nil {
		return secondsUntil(t, now)
	}
	return 0, false
}

func secondsUntil(t, now time.Time) (int, bool) {
	d := t.Unix() - now.Unix()
	if d <= 0 {
		return 0, false
	}
	return int(d), true
}

// DetectTooManyAttempts 默认的 429 检测回调
// 状态码为 429 时标记限额超限，释放时间取 Retry-After，缺失或无效时沿用限额自身窗口。
func DetectTooManyAttempts(resp Response, l *Limit) {
	if resp == nil || resp.StatusCode() != http.StatusTooManyRequests {
		return
	}
	if seconds, ok := ParseRetryAfter(resp.Header(HeaderRetryAfter), l.clockTime()); ok {
		l.MarkExceededFor(seconds)
		return
	}
	l.MarkExceeded()
}
