// Package log defines the structured logging contract used across
// liquidnode and its library packages.
//
// The Logger interface is deliberately small: leveled, key/value
// structured messages plus context accumulation (WithKV) and naming
// (WithName). Two implementations ship with the package:
//
//   - ZapLogger, the production logger backed by uber-go/zap, with
//     console, logfmt and JSON output formats.
//   - NoopLogger, which discards everything; the safe default wherever a
//     logger was not injected.
//
// Loggers travel through request scopes via SetContextLogger/FromContext
// so library code never reaches for a global.
package log
