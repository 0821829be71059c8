package common

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// dODBCLogger implements the ILogger interface on top of a zap logger.
// Level filtering happens here so every named logger can be tuned on its own.
type dODBCLogger struct {
	mu     sync.RWMutex
	level  logger.LogLevel
	logger *zap.SugaredLogger
}

func (l *dODBCLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *dODBCLogger) enabled(level logger.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= level
}

func (l *dODBCLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.logger.Debugf(format, args...)
	}
}

func (l *dODBCLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.logger.Infof(format, args...)
	}
}

func (l *dODBCLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.logger.Warnf(format, args...)
	}
}

func (l *dODBCLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.logger.Errorf(format, args...)
	}
}

func (l *dODBCLogger) Panicf(format string, args ...interface{}) {
	if l.enabled(logger.CRITICAL) {
		l.logger.Panicf(format, args...)
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	baseOnce sync.Once
	base     *zap.Logger
)

// baseLogger builds the shared zap logger. Every level is enabled at the zap
// layer, the per-package level of dODBCLogger decides what is written.
func baseLogger() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Sampling = nil
		l, err := cfg.Build(zap.WithCaller(true), zap.AddCallerSkip(1))
		if err != nil {
			l = zap.NewNop()
		}
		base = l
	})
	return base
}

// CreateLogger implements dragonboats logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &dODBCLogger{
		level:  logger.INFO,
		logger: baseLogger().Named(pkgName).Sugar(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// Loggers lists the named loggers used by the driver packages
var Loggers = []string{"registry", "snapshot", "cmd"}

var initLoggersOnce sync.Once

// InitLoggers installs the custom logger factory and applies the configured
// level to every driver logger. The factory is installed only once, later
// calls just change the level.
func InitLoggers(config DriverConfig) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}

	initLoggersOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range Loggers {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}

// SyncLoggers flushes buffered log entries
func SyncLoggers() {
	_ = baseLogger().Sync()
}
