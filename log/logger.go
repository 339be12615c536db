// Package log provides the process-scoped structured logging facility.
//
// The facility is initialized exactly once: Init configures the output
// (append-only request log file plus mirrored stdout) on first call and
// is a no-op afterwards. L returns the process logger, falling back to
// a stdout-only logger when Init was never called.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for the pipeline core (structured fields)
//   - SugaredLogger: Printf-style logging for CLI surfaces
package log

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging. Per-run child loggers carry a
// run_id context field on every entry.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

var (
	initOnce sync.Once
	initErr  error
	global   *Logger
)

// Init initializes the process logging facility, writing JSON entries to
// filePath (created append-only, parent directories included) and
// mirroring every entry to stdout. Only the first call has any effect;
// later calls return the already-configured logger.
func Init(filePath string) (*Logger, error) {
	initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			initErr = err
			return
		}
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			initErr = err
			return
		}
		global = newLogger(zapcore.NewMultiWriteSyncer(
			zapcore.AddSync(f),
			zapcore.AddSync(os.Stdout),
		))
	})
	if initErr != nil {
		return nil, initErr
	}
	return L(), nil
}

// L returns the process logger. If Init was never called (or failed),
// a stdout-only logger is used instead.
func L() *Logger {
	initOnce.Do(func() {
		global = newLogger(zapcore.AddSync(os.Stdout))
	})
	if global == nil {
		// Init ran and failed; fall back without re-arming the Once.
		return newLogger(zapcore.AddSync(os.Stdout))
	}
	return global
}

func newLogger(ws zapcore.WriteSyncer) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		ws,
		zapcore.InfoLevel,
	)

	return &Logger{zap: zap.New(core)}
}

// NewLoggerWithWriter creates a standalone logger writing to ws.
// Used by tests and by surfaces that must not touch the process facility.
func NewLoggerWithWriter(ws zapcore.WriteSyncer) *Logger {
	return newLogger(ws)
}

// WithRun returns a child logger that stamps run_id on every entry.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{zap: l.zap.With(zap.String("run_id", runID))}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}
