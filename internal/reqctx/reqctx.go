// Package reqctx carries per-call caller identity through the dispatch path.
//
// The active RequestContext rides on context.Context, so it follows the
// logical call chain across goroutines, network waits, and back-off sleeps.
// Two concurrently served calls each derive their own context and can never
// observe each other's credentials, no matter how they interleave.
package reqctx

import "context"

// RequestContext is the per-call bundle of caller credential and origin
// metadata. It is read-only for the duration of tool execution and must not
// be retained by handlers beyond the call.
type RequestContext struct {
	// APIKey is the caller credential, forwarded upstream as a bearer token.
	// Empty means the caller is anonymous.
	APIKey string

	// ClientIP is the best-effort caller network origin, derived from
	// forwarding headers or the raw connection.
	ClientIP string
}

type ctxKey struct{}

// With returns a child context with rc installed as the active
// RequestContext for everything descended from it.
func With(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// From reads the active RequestContext. The second return is false when the
// call chain never entered a With scope.
func From(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return rc, ok
}
