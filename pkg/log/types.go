package log

// Logger is the structured logging contract. Messages carry a level and
// alternating key/value context pairs (e.g. "wallet", label, "error", err).
type Logger interface {
	// Debug logs development-time detail.
	Debug(msg string, keysAndValues ...any)
	// Info logs routine progress and state changes.
	Info(msg string, keysAndValues ...any)
	// Warn logs conditions that are suspicious but survivable.
	Warn(msg string, keysAndValues ...any)
	// Error logs failures that need attention.
	Error(msg string, keysAndValues ...any)
	// Fatal logs an unrecoverable failure and terminates the program.
	Fatal(msg string, keysAndValues ...any)
	// WithKV returns a logger that attaches the pair to every future message.
	WithKV(key string, value any) Logger
	// GetAllKV returns the persistent key/value pairs accumulated so far.
	GetAllKV() []any
	// WithName returns a logger named after a component; names nest with dots.
	WithName(name string) Logger
	// Name returns the logger's full name.
	Name() string
	// AddCallerSkip returns a logger skipping extra stack frames when
	// reporting the log site. Implementations without caller reporting
	// return themselves.
	AddCallerSkip(skip int) Logger
}

// Level is the severity of a log message.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)
