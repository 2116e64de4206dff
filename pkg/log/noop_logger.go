package log

var _ Logger = NoopLogger{}

// NoopLogger discards every message. It is the default wherever a logger
// was not injected, so library code can log unconditionally.
type NoopLogger struct{}

// NewNoopLogger returns a logger that silently drops everything.
func NewNoopLogger() Logger {
	return NoopLogger{}
}

func (n NoopLogger) Debug(msg string, keysAndValues ...any) {}
func (n NoopLogger) Info(msg string, keysAndValues ...any)  {}
func (n NoopLogger) Warn(msg string, keysAndValues ...any)  {}
func (n NoopLogger) Error(msg string, keysAndValues ...any) {}
func (n NoopLogger) Fatal(msg string, keysAndValues ...any) {}

func (n NoopLogger) WithKV(key string, value any) Logger { return n }
func (n NoopLogger) GetAllKV() []any                     { return []any{} }
func (n NoopLogger) WithName(name string) Logger         { return n }
func (n NoopLogger) Name() string                        { return "noop" }
func (n NoopLogger) AddCallerSkip(skip int) Logger       { return n }
