package auth

import "context"

// Context records the verified identity of one request. It is built by
// the credentials middleware after a successful match and discarded
// when the request ends; nothing is persisted between requests.
type Context struct {
	Login        string
	PasswordHash string
}

type ctxKey struct{}

// WithContext attaches the authorization context to the request context.
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext returns the authorization context. ok is false when the
// request passed through the middleware unauthenticated.
func FromContext(ctx context.Context) (*Context, bool) {
	ac, ok := ctx.Value(ctxKey{}).(*Context)
	return ac, ok
}
