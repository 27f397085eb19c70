package xquota

import (
	"fmt"
	"time"
)

// 窗口构建方法。每个方法都把窗口解析为绝对秒数，
// 日历型窗口（午夜、月底、每日定点）额外设置 windowKey 用于默认名称。

// EverySeconds 每 seconds 秒释放一次
func (l *Limit) EverySeconds(seconds int) *Limit {
	return l.EverySecondsKeyed(seconds, "")
}

// EverySecondsKeyed 每 seconds 秒释放一次，并使用 key 代替秒数参与默认名称
func (l *Limit) EverySecondsKeyed(seconds int, key string) *Limit {
	if seconds < 0 {
		l.setBuildErr(fmt.Errorf("%w: window cannot be negative, got %d", ErrInvalidLimit, seconds))
	}
	l.releaseIn = seconds
	l.windowKey = key
	return l
}

// Every 以 time.Duration 指定窗口，不足一秒的部分被截断
func (l *Limit) Every(d time.Duration) *Limit {
	return l.EverySeconds(int(d / time.Second))
}

// EveryMinute 每分钟释放
func (l *Limit) EveryMinute() *Limit { return l.EverySeconds(60) }

// EveryFiveMinutes 每 5 分钟释放
func (l *Limit) EveryFiveMinutes() *Limit { return l.EverySeconds(60 * 5) }

// EveryThirtyMinutes 每 30 分钟释放
func (l *Limit) EveryThirtyMinutes() *Limit { return l.EverySeconds(60 * 30) }

// EveryHour 每小时释放
func (l *Limit) EveryHour() *Limit { return l.EverySeconds(60 * 60) }

// EverySixHours 每 6 小时释放
func (l *Limit) EverySixHours() *Limit { return l.EverySeconds(60 * 60 * 6) }

// EveryTwelveHours 每 12 小时释放
func (l *Limit) EveryTwelveHours() *Limit { return l.EverySeconds(60 * 60 * 12) }

// EveryDay 每天释放
func (l *Limit) EveryDay() *Limit { return l.EverySeconds(60 * 60 * 24) }

// UntilMidnightTonight 在本地时间今晚零点释放
func (l *Limit) UntilMidnightTonight() *Limit {
	now := l.clockTime()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return l.EverySecondsKeyed(int(midnight.Unix()-now.Unix()), "midnight")
}

// UntilEndOfMonth 在本月最后一天 23:59 释放
func (l *Limit) UntilEndOfMonth() *Limit {
	now := l.clockTime()
	y, m, _ := now.Date()
	// 下个月第 0 天即本月最后一天
	end := time.Date(y, m+1, 0, 23, 59, 0, 0, now.Location())
	return l.EverySecondsKeyed(int(end.Unix()-now.Unix()), "end_of_month")
}

// EveryDayUntil 每天在 clock（"HH:MM"，本地时间）释放
// 今天的时间点已过去时滚动到明天。格式错误会记录为构建错误。
func (l *Limit) EveryDayUntil(clock string) *Limit {
	at, err := time.Parse("15:04", clock)
	if err != nil {
		l.setBuildErr(fmt.Errorf("%w: invalid time of day %q: %w", ErrInvalidLimit, clock, err))
		return l
	}

	now := l.clockTime()
	y, m, d := now.Date()
	target := time.Date(y, m, d, at.Hour(), at.Minute(), 0, 0, now.Location())
	if target.Unix() < now.Unix() {
		target = time.Date(y, m, d+1, at.Hour(), at.Minute(), 0, 0, now.Location())
	}
	return l.EverySecondsKeyed(int(target.Unix()-now.Unix()), clock)
}

func (l *Limit) clockTime() time.Time {
	if l.clock == nil {
		return time.Now()
	}
	return l.clock()
}
