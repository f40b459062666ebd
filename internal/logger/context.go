package logger

import "context"

// ctxKey keeps the request-ID value private to this package.
type ctxKey struct{}

// WithRequestID stores id on the context for later log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the request ID stored by WithRequestID, or "" when
// the request carries none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
