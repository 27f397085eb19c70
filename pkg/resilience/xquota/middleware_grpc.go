package xquota

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryClientInterceptor 创建 gRPC 一元客户端拦截器
//
// 生命周期与 Transport 相同：Before → 等待 → 调用 → After。
// 服务端返回 ResourceExhausted 时按 429 处理，retry-after 从响应 header/trailer 中读取。
//
// 示例:
//
//	conn, err := grpc.NewClient(target,
//	    grpc.WithUnaryInterceptor(xquota.UnaryClientInterceptor(guard, connector)),
//	)
func UnaryClientInterceptor(guard *Guard, rl RateLimited, opts ...MiddlewareOption) grpc.UnaryClientInterceptor {
	if guard == nil {
		panic("xquota: UnaryClientInterceptor requires a non-nil Guard")
	}
	o := defaultMiddlewareOptions()
	if rl != nil {
		o.sources = append(o.sources, rl)
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		if err := preflight(ctx, guard, o.sources, o.wait); err != nil {
			return err
		}

		var header, trailer metadata.MD
		callOpts = append(callOpts, grpc.Header(&header), grpc.Trailer(&trailer))
		invokeErr := invoker(ctx, method, req, reply, cc, callOpts...)

		resp := NewGRPCResponse(invokeErr, metadata.Join(header, trailer))
		if err := postResponse(ctx, guard, o.sources, resp); err != nil {
			return err
		}
		return invokeErr
	}
}
