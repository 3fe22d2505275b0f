package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	once         sync.Once
)

// Init initializes the global logger
func Init(level string) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(level)
	})
	return err
}

// Get returns the global logger, falling back to info level when Init was never called
func Get() *zap.Logger {
	if globalLogger == nil {
		_ = Init("info")
	}
	return globalLogger
}

// Sync flushes any buffered log entries
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// New builds a JSON production logger at the given level. Unknown levels fall back to info.
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.CallerKey = "caller"

	return config.Build()
}

// ForMessage returns a child logger tagged with the sender and a per-message id,
// so every line written while handling one inbound message can be correlated.
func ForMessage(base *zap.Logger, messageID, from string) *zap.Logger {
	return base.With(
		zap.String("message_id", messageID),
		zap.String("from", MaskPhone(from)),
	)
}

// MaskPhone keeps only the last four digits of a phone identity.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := make([]byte, 0, len(phone))
	for i := 0; i < len(phone)-4; i++ {
		masked = append(masked, '*')
	}
	return string(masked) + phone[len(phone)-4:]
}
