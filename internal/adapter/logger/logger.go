package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
	Sync() error
}

type zapLogger struct {
	base *zap.Logger
}

// New builds a service logger. Every entry carries the service name and the
// hostname of the process.
func New(service string, cfg Config) (Logger, error) {
	hostname, _ := os.Hostname()

	core := zapcore.NewCore(createEncoder(cfg), createWriter(cfg.Output), parseLevel(cfg.Level))
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("service", service), zap.String("hostname", hostname))

	return &zapLogger{base: base}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zapLogger{base: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(base *zap.Logger) Logger {
	return &zapLogger{base: base}
}

func (l *zapLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(zapcore.InfoLevel, action, message, requestID, details, nil)
}

func (l *zapLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(zapcore.DebugLevel, action, message, requestID, details, nil)
}

func (l *zapLogger) Warn(action, message, requestID string, details map[string]interface{}) {
	l.log(zapcore.WarnLevel, action, message, requestID, details, nil)
}

func (l *zapLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(zapcore.ErrorLevel, action, message, requestID, details, err)
}

func (l *zapLogger) Sync() error {
	return l.base.Sync()
}

func (l *zapLogger) log(level zapcore.Level, action, message, requestID string, details map[string]interface{}, err error) {
	ce := l.base.Check(level, message)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, 4)
	fields = append(fields, zap.String("action", action), zap.String("request_id", requestID))
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}
