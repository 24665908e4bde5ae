package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

// InitLogger initializes the Zap logger for the given environment.
// Production logs JSON at info level; everything else logs at debug level.
func InitLogger(environment string) error {
	var zapLevel zapcore.Level
	switch environment {
	case "production":
		zapLevel = zapcore.InfoLevel
	default:
		zapLevel = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zapLevel,
	)

	mu.Lock()
	logger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	mu.Unlock()

	return nil
}

// GetLogger returns the structured logger. Falls back to a no-op logger when
// InitLogger has not run, so library code and tests never need a nil check.
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Sync syncs all logs (call this before application exits)
func Sync() {
	mu.RLock()
	defer mu.RUnlock()

	if logger != nil {
		_ = logger.Sync()
	}
}
