package pigpio

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

// Logger returns the package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// SetLogger configures the logger used by registries created without
// WithLogger. Pass nil to restore the no-op logger.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func sourceFields(kind Kind, index int) []zap.Field {
	fields := []zap.Field{
		zap.Stringer("kind", kind),
		zap.Int("index", index),
	}
	if kind == OsSignal {
		if name := signalName(index); name != "" {
			fields = append(fields, zap.String("signal", name))
		}
	}
	return fields
}
