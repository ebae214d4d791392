package observe

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLogLevel parses a string log level. Unknown levels mean info.
func ParseLogLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ZapLogger is the JSON Logger backed by zap.
type ZapLogger struct {
	base *zap.Logger
	file *lumberjack.Logger
}

// NewLogger creates a JSON logger writing to stderr.
func NewLogger(level string) *ZapLogger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) *ZapLogger {
	return &ZapLogger{base: newZap(level, zapcore.AddSync(w))}
}

// NewLoggerFromConfig creates a logger from cfg. With a File set, output is
// rotated by size; the size defaults to 100 MB.
func NewLoggerFromConfig(cfg LoggingConfig) (*ZapLogger, error) {
	if cfg.File == "" {
		return NewLogger(cfg.Level), nil
	}
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		return nil, errors.New("observe: log rotation limits must not be negative")
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return &ZapLogger{base: newZap(cfg.Level, zapcore.AddSync(file)), file: file}, nil
}

// NewZapLogger adapts an existing zap logger.
func NewZapLogger(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &ZapLogger{base: z}
}

func newZap(level string, w zapcore.WriteSyncer) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, ParseLogLevel(level))
	return zap.New(core)
}

// Zap returns the underlying zap logger.
func (l *ZapLogger) Zap() *zap.Logger {
	return l.base
}

// WithService returns a logger tagging every entry with the service name.
func (l *ZapLogger) WithService(name string) *ZapLogger {
	return &ZapLogger{base: l.base.With(zap.String("service", name)), file: l.file}
}

// WithProbe returns a logger tagging every entry with the probe name.
func (l *ZapLogger) WithProbe(name string) Logger {
	return &ZapLogger{base: l.base.With(zap.String("probe.name", name)), file: l.file}
}

func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.base.Info(msg, zapFields(fields)...)
}

func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.base.Warn(msg, zapFields(fields)...)
}

func (l *ZapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.base.Error(msg, zapFields(fields)...)
}

func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.base.Debug(msg, zapFields(fields)...)
}

// Close flushes buffered entries and closes the log file, if any.
func (l *ZapLogger) Close() error {
	if l.file == nil {
		return nil
	}
	_ = l.base.Sync()
	return l.file.Close()
}

func zapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if isRedactedField(f.Key) {
			out = append(out, zap.String(f.Key, "[REDACTED]"))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var redactedKeys = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[k] = true
	}
	return m
}()

func isRedactedField(key string) bool {
	return redactedKeys[key]
}

// syncLogger closes file-backed loggers. Stderr is left alone; syncing it
// fails on some platforms.
func syncLogger(l Logger) error {
	if zl, ok := l.(*ZapLogger); ok {
		return zl.Close()
	}
	return nil
}

type nopLogger struct{}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Info(ctx context.Context, msg string, fields ...Field)  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...Field)  {}
func (nopLogger) Error(ctx context.Context, msg string, fields ...Field) {}
func (nopLogger) Debug(ctx context.Context, msg string, fields ...Field) {}
func (l nopLogger) WithProbe(name string) Logger                         { return l }

var (
	_ Logger = (*ZapLogger)(nil)
	_ Logger = nopLogger{}
)
