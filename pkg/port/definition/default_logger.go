package definition

import (
	"github.com/natefinch/lumberjack"
	commonlog "github.com/prometheus/common/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jabolina/go-port/pkg/port/types"
)

// DefaultLogger is a zap-backed types.Logger an endpoint's owner can
// pass in (endpoints built with a nil logger do not log at all),
// grounded on cppla-moto's
// utils/log.go: a lumberjack-rotated JSON file core wrapped by an
// AtomicLevel so ToggleDebug can flip verbosity at runtime instead of
// requiring the teacher's fixed-at-init level.
type DefaultLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewDefaultLogger builds a DefaultLogger writing rotated JSON logs to
// path. If path is empty, it falls back to prometheus/common/log's
// package logger -- the same fallback SPEC_FULL.md §10.1 calls for
// when no rotation target is configured (e.g. short-lived test
// processes).
func NewDefaultLogger(path string) *DefaultLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if path == "" {
		return &DefaultLogger{sugar: newFallbackLogger(level), level: level}
	}

	hook := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(hook), level)
	logger := zap.New(core, zap.AddCaller())

	return &DefaultLogger{sugar: logger.Sugar(), level: level}
}

// newFallbackLogger adapts prometheus/common/log's package-level
// logger to a *zap.SugaredLogger shape so DefaultLogger has a single
// backing field regardless of which backend is active.
func newFallbackLogger(level zap.AtomicLevel) *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(commonLogWriter{}),
		level,
	)
	return zap.New(core).Sugar()
}

// commonLogWriter routes zap's encoded lines through
// prometheus/common/log, the library SPEC_FULL.md §11 names as the
// fallback target when no rotation path is configured.
type commonLogWriter struct{}

func (commonLogWriter) Write(p []byte) (int, error) {
	commonlog.Info(string(p))
	return len(p), nil
}

func (l *DefaultLogger) Info(v ...interface{})  { l.sugar.Info(v...) }
func (l *DefaultLogger) Infof(format string, v ...interface{}) { l.sugar.Infof(format, v...) }
func (l *DefaultLogger) Warn(v ...interface{})  { l.sugar.Warn(v...) }
func (l *DefaultLogger) Warnf(format string, v ...interface{}) { l.sugar.Warnf(format, v...) }
func (l *DefaultLogger) Error(v ...interface{}) { l.sugar.Error(v...) }
func (l *DefaultLogger) Errorf(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }

func (l *DefaultLogger) Debug(v ...interface{}) { l.sugar.Debug(v...) }
func (l *DefaultLogger) Debugf(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }

func (l *DefaultLogger) Fatal(v ...interface{})  { l.sugar.Fatal(v...) }
func (l *DefaultLogger) Fatalf(format string, v ...interface{}) { l.sugar.Fatalf(format, v...) }

func (l *DefaultLogger) Panic(v ...interface{})  { l.sugar.Panic(v...) }
func (l *DefaultLogger) Panicf(format string, v ...interface{}) { l.sugar.Panicf(format, v...) }

// ToggleDebug flips the atomic level between debug and info, matching
// the teacher's DefaultLogger.ToggleDebug contract.
func (l *DefaultLogger) ToggleDebug(value bool) bool {
	if value {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.InfoLevel)
	}
	return value
}

var _ types.Logger = (*DefaultLogger)(nil)
