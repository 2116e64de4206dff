package log

import "context"

type contextKey struct{}

var loggerContextKey = contextKey{}

// SetContextLogger attaches lg to the context. A nil logger is replaced
// with a NoopLogger so FromContext never hands back nil.
func SetContextLogger(ctx context.Context, lg Logger) context.Context {
	if lg == nil {
		lg = NewNoopLogger()
	}
	return context.WithValue(ctx, loggerContextKey, lg)
}

// FromContext retrieves the logger stored in the context, or a NoopLogger
// when none was attached.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return l
	}
	return NewNoopLogger()
}
