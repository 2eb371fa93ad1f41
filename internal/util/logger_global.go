package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface = discardLogger()
	loggerMu     sync.RWMutex
)

func discardLogger() LoggerInterface {
	l, _ := NewLogger(LoggerOptions{Level: "error"})
	return l
}

// InitLogger replaces the global logger. The previous logger's outputs are closed.
func InitLogger(opts LoggerOptions) error {
	logger, err := NewLogger(opts)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger installs l as the global logger
func SetLogger(l LoggerInterface) {
	loggerMu.Lock()
	prev := globalLogger
	globalLogger = l
	loggerMu.Unlock()

	if prev != nil && prev != l {
		_ = prev.Close()
	}
}

// Log returns the global logger
func Log() LoggerInterface {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

// LogInfo convenience functions for logging
func LogInfo(msg string, fields ...Field) {
	Log().Info(msg, fields...)
}

func LogInfof(format string, args ...interface{}) {
	Log().Infof(format, args...)
}

func LogDebug(msg string, fields ...Field) {
	Log().Debug(msg, fields...)
}

func LogDebugf(format string, args ...interface{}) {
	Log().Debugf(format, args...)
}

func LogWarn(msg string, fields ...Field) {
	Log().Warn(msg, fields...)
}

func LogWarnf(format string, args ...interface{}) {
	Log().Warnf(format, args...)
}

func LogError(msg string, fields ...Field) {
	Log().Error(msg, fields...)
}

func LogErrorf(format string, args ...interface{}) {
	Log().Errorf(format, args...)
}
