package main

import (
	"os"

	ipfslog "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"

	"github.com/apilatam/liquidnode/pkg/log"
)

// NewLoggerIPFS returns a pkg/log.Logger backed by ipfs/go-log, which gives
// us per-subsystem level control via GOLOG_* on top of the usual env knobs.
// The binary uses this one; library packages receive it through injection.
func NewLoggerIPFS(name string) log.Logger {
	return &ipfsLogger{
		name: name,
		lg:   ipfslog.Logger(name).SugaredLogger.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

type ipfsLogger struct {
	name          string
	lg            *zap.SugaredLogger
	keysAndValues []any
}

func (l *ipfsLogger) Debug(msg string, keysAndValues ...any) {
	l.lg.Debugw(msg, keysAndValues...)
}

func (l *ipfsLogger) Info(msg string, keysAndValues ...any) {
	l.lg.Infow(msg, keysAndValues...)
}

func (l *ipfsLogger) Warn(msg string, keysAndValues ...any) {
	l.lg.Warnw(msg, keysAndValues...)
}

func (l *ipfsLogger) Error(msg string, keysAndValues ...any) {
	l.lg.Errorw(msg, keysAndValues...)
}

func (l *ipfsLogger) Fatal(msg string, keysAndValues ...any) {
	l.lg.Fatalw(msg, keysAndValues...)
}

func (l *ipfsLogger) WithKV(key string, value any) log.Logger {
	return &ipfsLogger{
		name:          l.name,
		lg:            l.lg.With(key, value),
		keysAndValues: append(l.keysAndValues, key, value),
	}
}

func (l *ipfsLogger) GetAllKV() []any {
	return l.keysAndValues
}

func (l *ipfsLogger) WithName(name string) log.Logger {
	full := l.name + "." + name
	return &ipfsLogger{
		name:          full,
		lg:            ipfslog.Logger(full).SugaredLogger.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar().With(l.keysAndValues...),
		keysAndValues: l.keysAndValues,
	}
}

func (l *ipfsLogger) Name() string {
	return l.name
}

func (l *ipfsLogger) AddCallerSkip(skip int) log.Logger {
	return &ipfsLogger{
		name:          l.name,
		lg:            l.lg.Desugar().WithOptions(zap.AddCallerSkip(skip)).Sugar(),
		keysAndValues: l.keysAndValues,
	}
}

func init() {
	logLevel := os.Getenv("LIQUIDNODE_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLevel, err := ipfslog.Parse(logLevel)
	if err != nil {
		zapLevel = ipfslog.LevelInfo
	}

	ipfslog.SetupLogging(ipfslog.Config{
		Level:  zapLevel,
		Stderr: true,
	})
}
