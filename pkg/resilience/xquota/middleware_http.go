package xquota

import (
	"net/http"
)

// Transport 在发送前后执行限额检查的 http.RoundTripper
//
// 示例:
//
//	guard, _ := xquota.NewGuard(xquota.WithLogger(logger))
//	client := &http.Client{Transport: xquota.NewTransport(guard, connector)}
//	resp, err := client.Get(url)
//	if d, ok := xquota.RetryAfter(err); ok {
//	    // 按 d 重新入队
//	}
type Transport struct {
	guard *Guard
	opts  *middlewareOptions
}

// NewTransport 创建限额 Transport，rl 为主限额来源
func NewTransport(guard *Guard, rl RateLimited, opts ...MiddlewareOption) *Transport {
	if guard == nil {
		panic("xquota: NewTransport requires a non-nil Guard")
	}
	o := defaultMiddlewareOptions()
	if rl != nil {
		o.sources = append(o.sources, rl)
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Transport{guard: guard, opts: o}
}

// RoundTrip 实现 http.RoundTripper
//
// 发送前触发限额时不发送请求；收到响应后触发限额时关闭响应体并返回 *LimitError。
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if err := preflight(ctx, t.guard, t.opts.sources, t.opts.wait); err != nil {
		return nil, err
	}

	resp, err := t.opts.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	wrapped := NewHTTPResponse(resp)
	if err := postResponse(ctx, t.guard, t.opts.sources, wrapped); err != nil {
		if body := wrapped.Raw().Body; body != nil {
			_ = body.Close() //nolint:errcheck // 响应被丢弃
		}
		return nil, err
	}
	return wrapped.Raw(), nil
}

var _ http.RoundTripper = (*Transport)(nil)
