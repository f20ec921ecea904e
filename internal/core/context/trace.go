package context

import "context"

// TraceContext holds the ids echoed in response headers and log entries.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace returns ctx carrying trace.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns the trace ids, or nil outside an HTTP request.
func GetTrace(ctx context.Context) *TraceContext {
	trace, _ := ctx.Value(traceKey{}).(*TraceContext)
	return trace
}

// GetRequestID returns the request id or "".
func GetRequestID(ctx context.Context) string {
	if trace := GetTrace(ctx); trace != nil {
		return trace.RequestID
	}
	return ""
}
