package xquota

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testStart 测试使用的固定起始时间
var testStart = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

// fakeClock 可手动推进的时间源
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testStart}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Unix() int64 {
	return c.Now().Unix()
}

// TestConnector 测试用的连接器，可选能力由字段控制
type TestConnector struct {
	limits   []*Limit
	store    Store
	prefix   string
	noDetect bool
	disabled bool
	tooMany  ResponseHandler
}

func (c *TestConnector) ResolveLimits() []*Limit { return c.limits }
func (c *TestConnector) ResolveStore() Store     { return c.store }
func (c *TestConnector) LimitPrefix() string     { return c.prefix }
func (c *TestConnector) DetectTooManyAttempts() bool {
	return !c.noDetect
}
func (c *TestConnector) RateLimitingEnabled() bool { return !c.disabled }
func (c *TestConnector) HandleTooManyAttempts(resp Response, l *Limit) {
	if c.tooMany != nil {
		c.tooMany(resp, l)
		return
	}
	DetectTooManyAttempts(resp, l)
}

// fakeResponse 静态响应
type fakeResponse struct {
	status  int
	headers map[string]string
}

func (r fakeResponse) StatusCode() int { return r.status }
func (r fakeResponse) Header(name string) string {
	return r.headers[http.CanonicalHeaderKey(name)]
}

func okResponse() Response { return fakeResponse{status: http.StatusOK} }

func tooManyResponse(retryAfter string) Response {
	h := map[string]string{}
	if retryAfter != "" {
		h[HeaderRetryAfter] = retryAfter
	}
	return fakeResponse{status: http.StatusTooManyRequests, headers: h}
}

// newTestGuard 返回使用 clk 的 Guard
func newTestGuard(t *testing.T, clk *fakeClock, opts ...Option) *Guard {
	t.Helper()
	g, err := NewGuard(append([]Option{WithClock(clk.Now)}, opts...)...)
	require.NoError(t, err)
	return g
}

// send 模拟请求管道：Before → 发送 → After
func send(ctx context.Context, g *Guard, rl RateLimited, resp Response) (time.Duration, error) {
	delay, err := g.Before(ctx, rl)
	if err != nil {
		return 0, err
	}
	return delay, g.After(ctx, rl, resp)
}

// decodeStored 读取并解码 Store 中的记录
func decodeStored(t *testing.T, s Store, key string) map[string]int64 {
	t.Helper()
	raw, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotEmpty(t, raw, "record %q not found", key)
	var rec map[string]int64
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}
