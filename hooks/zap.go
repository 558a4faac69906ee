package hooks

import (
	"go.uber.org/zap"

	"github.com/pixelgate/imagepipe/core"
)

// ZapLogger adapts a zap.SugaredLogger to core.Logger.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{log: l.Sugar()}
}

// NewDevelopmentLogger builds a human-readable zap logger for local use.
func NewDevelopmentLogger() (*ZapLogger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

func (z *ZapLogger) Debug(msg string, fields ...interface{}) { z.log.Debugw(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...interface{}) { z.log.Infow(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...interface{}) { z.log.Warnw(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...interface{}) { z.log.Errorw(msg, fields...) }

// Sync flushes buffered log entries.
func (z *ZapLogger) Sync() error { return z.log.Sync() }

var _ core.Logger = (*ZapLogger)(nil)
