package logger

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/leandrodaf/blemidi/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of a zap core.
type ZapLogger struct {
	logger  *zap.Logger
	level   zap.AtomicLevel
	encoder zapcore.Encoder
}

// NewZapLogger creates a JSON logger writing to stderr at info level.
func NewZapLogger() contracts.Logger {
	return newZapLogger(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()))
}

// NewDevelopmentLogger creates a human-readable console logger.
func NewDevelopmentLogger() contracts.Logger {
	return newZapLogger(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()))
}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

func newZapLogger(enc zapcore.Encoder) *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return &ZapLogger{
		logger:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		level:   level,
		encoder: enc,
	}
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.logger.Info(msg, toZap(fields)...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.logger.Error(msg, toZap(fields)...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.logger.Debug(msg, toZap(fields)...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.logger.Warn(msg, toZap(fields)...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.logger.Fatal(msg, toZap(fields)...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return zapField{}
}

// SetLevel sets the minimum level that is written.
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(zapLevel(level))
}

// SetDestination redirects output to stderr or to the file at filePath[0].
// The previous destination is kept when the file cannot be opened.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	if z.encoder == nil {
		return
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if dest == contracts.FileLog {
		if len(filePath) == 0 || filePath[0] == "" {
			z.Warn("file log destination requested without a path")
			return
		}
		f, err := os.OpenFile(filePath[0], os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			z.Error("failed to open log file", z.Field().String("path", filePath[0]), z.Field().Error("error", err))
			return
		}
		sink = zapcore.AddSync(f)
	}

	_ = z.logger.Sync()
	core := zapcore.NewCore(z.encoder, sink, z.level)
	z.logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func zapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZap(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(zapField); ok && f.field.Key != "" {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field by wrapping a zap.Field.
type zapField struct {
	field zap.Field
}

func (zapField) Bool(key string, val bool) contracts.Field { return zapField{zap.Bool(key, val)} }

func (zapField) Int(key string, val int) contracts.Field { return zapField{zap.Int(key, val)} }

func (zapField) Float64(key string, val float64) contracts.Field {
	return zapField{zap.Float64(key, val)}
}

func (zapField) String(key string, val string) contracts.Field {
	return zapField{zap.String(key, val)}
}

func (zapField) Time(key string, val time.Time) contracts.Field { return zapField{zap.Time(key, val)} }

func (zapField) Duration(key string, val time.Duration) contracts.Field {
	return zapField{zap.Duration(key, val)}
}

func (zapField) Int64(key string, val int64) contracts.Field { return zapField{zap.Int64(key, val)} }

func (zapField) Error(key string, val error) contracts.Field {
	return zapField{zap.NamedError(key, val)}
}

func (zapField) Uint64(key string, val uint64) contracts.Field {
	return zapField{zap.Uint64(key, val)}
}

func (zapField) Uint8(key string, val uint8) contracts.Field { return zapField{zap.Uint8(key, val)} }

func (zapField) Hex(key string, val []byte) contracts.Field {
	return zapField{zap.String(key, hex.EncodeToString(val))}
}
