package xquota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterval_FixedWindows(t *testing.T) {
	tests := []struct {
		name  string
		limit *Limit
		want  int
	}{
		{"EveryMinute", Allow(1).EveryMinute(), 60},
		{"EveryFiveMinutes", Allow(1).EveryFiveMinutes(), 300},
		{"EveryThirtyMinutes", Allow(1).EveryThirtyMinutes(), 1800},
		{"EveryHour", Allow(1).EveryHour(), 3600},
		{"EverySixHours", Allow(1).EverySixHours(), 21600},
		{"EveryTwelveHours", Allow(1).EveryTwelveHours(), 43200},
		{"EveryDay", Allow(1).EveryDay(), 86400},
		{"Every", Allow(1).Every(90*time.Second + 500*time.Millisecond), 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limit.ReleaseInSeconds())
			assert.NoError(t, tt.limit.Validate())
		})
	}
}

func TestInterval_CalendarWindows(t *testing.T) {
	clk := newFakeClock() // 2024-03-15 10:30:00 UTC

	tests := []struct {
		name    string
		limit   *Limit
		seconds int
		key     string
	}{
		{"午夜", Allow(1).WithClock(clk.Now).UntilMidnightTonight(), 48600, "midnight"},
		{"月底", Allow(1).WithClock(clk.Now).UntilEndOfMonth(), 1430940, "end_of_month"},
		{"今天稍后", Allow(1).WithClock(clk.Now).EveryDayUntil("14:00"), 12600, "14:00"},
		{"滚动到明天", Allow(1).WithClock(clk.Now).EveryDayUntil("09:00"), 81000, "09:00"},
		{"恰好现在", Allow(1).WithClock(clk.Now).EveryDayUntil("10:30"), 0, "10:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.seconds, tt.limit.ReleaseInSeconds())
			assert.Equal(t, "xquota:1_every_"+tt.key, tt.limit.Name())
		})
	}
}

func TestInterval_EndOfMonthFebruary(t *testing.T) {
	now := time.Date(2024, time.February, 28, 23, 0, 0, 0, time.UTC)
	l := Allow(1).WithClock(func() time.Time { return now }).UntilEndOfMonth()
	// 闰年二月 29 日 23:59
	assert.Equal(t, 24*3600+59*60, l.ReleaseInSeconds())
}

func TestInterval_LocalTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	now := time.Date(2024, time.March, 15, 22, 0, 0, 0, loc)
	l := Allow(1).WithClock(func() time.Time { return now }).UntilMidnightTonight()
	assert.Equal(t, 2*3600, l.ReleaseInSeconds())
}

func TestInterval_NegativeWindow(t *testing.T) {
	l := Allow(1).EverySeconds(-1)
	assert.ErrorIs(t, l.Validate(), ErrInvalidLimit)
}
