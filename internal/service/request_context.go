package service

import "context"

type requestInfoKey struct{}

// RequestInfo 请求元信息,写入审计日志
type RequestInfo struct {
	RequestID string
	IP        string
	UserAgent string
}

// WithRequestInfo 把请求元信息写入 context
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom 从 context 读取请求元信息
func RequestInfoFrom(ctx context.Context) RequestInfo {
	if info, ok := ctx.Value(requestInfoKey{}).(RequestInfo); ok {
		return info
	}
	return RequestInfo{}
}
