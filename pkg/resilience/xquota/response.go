package xquota

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Response 响应驱动型限额观察到的响应
// HTTP 与 gRPC 调用分别由 HTTPResponse、GRPCResponse 适配。
type Response interface {
	// StatusCode HTTP 状态码；gRPC 调用映射为同类 HTTP 状态码
	StatusCode() int
	// Header 返回首个同名头部的值，不存在时返回空字符串
	Header(name string) string
}

// HTTPResponse *http.Response 适配器
type HTTPResponse struct {
	resp *http.Response

	once    sync.Once
	body    []byte
	bodyErr error
}

// NewHTTPResponse 包装 *http.Response
func NewHTTPResponse(resp *http.Response) *HTTPResponse {
	return &HTTPResponse{resp: resp}
}

// StatusCode 实现 Response
func (r *HTTPResponse) StatusCode() int {
	if r.resp == nil {
		return 0
	}
	return r.resp.StatusCode
}

// Header 实现 Response
func (r *HTTPResponse) Header(name string) string {
	if r.resp == nil {
		return ""
	}
	return r.resp.Header.Get(name)
}

// Body 读取响应体，供需要检查响应内容的回调使用
// 首次调用时读取全部内容，并把 resp.Body 替换为可重复读取的副本，调用方仍可正常消费。
func (r *HTTPResponse) Body() ([]byte, error) {
	r.once.Do(func() {
		if r.resp == nil || r.resp.Body == nil {
			return
		}
		r.body, r.bodyErr = io.ReadAll(r.resp.Body)
		_ = r.resp.Body.Close() //nolint:errcheck // 已读取完毕
		r.resp.Body = io.NopCloser(bytes.NewReader(r.body))
	})
	return r.body, r.bodyErr
}

// Raw 返回底层 *http.Response
func (r *HTTPResponse) Raw() *http.Response {
	return r.resp
}

// GRPCResponse gRPC 一元调用结果适配器
type GRPCResponse struct {
	code codes.Code
	md   metadata.MD
}

// NewGRPCResponse 根据调用错误与响应元数据（header + trailer）创建
func NewGRPCResponse(err error, md metadata.MD) *GRPCResponse {
	return &GRPCResponse{code: status.Code(err), md: md}
}

// Code 返回 gRPC 状态码
func (r *GRPCResponse) Code() codes.Code {
	return r.code
}

// StatusCode 实现 Response，把 gRPC 状态码映射为 HTTP 状态码
// ResourceExhausted 映射为 429，自动 429 检测因此对 gRPC 同样生效。
func (r *GRPCResponse) StatusCode() int {
	return grpcToHTTP(r.code)
}

// Header 实现 Response，元数据键不区分大小写
func (r *GRPCResponse) Header(name string) string {
	if v := r.md.Get(strings.ToLower(name)); len(v) > 0 {
		return v[0]
	}
	return ""
}

func grpcToHTTP(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return 499
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

var (
	_ Response = (*HTTPResponse)(nil)
	_ Response = (*GRPCResponse)(nil)
)
