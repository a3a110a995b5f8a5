// Package logging implements a small leveled logger used by pkg/backup and
// the cmd/ binaries. pkg/archive, pkg/manifest, pkg/fileinfo, and
// pkg/schedule stay logger-free; only orchestration and CLI code logs.
package logging

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls how a root Logger is constructed.
type Config struct {
	// Level is the minimum level that will be emitted.
	Level Level
	// File, when non-empty, additionally writes every emitted line to a
	// rotated file via lumberjack (10 MiB per file, 5 backups kept).
	File string
	// Color enables ANSI coloring of level prefixes on the console sink.
	// Has no effect on the file sink.
	Color bool
}

// Logger is the main logger type. Like mutagen's logger, it still functions
// if nil (every method becomes a no-op), so a *Logger can be threaded
// through code that runs with logging disabled without nil checks at every
// call site.
type Logger struct {
	core     *zap.SugaredLogger
	minLevel Level
	prefix   string
}

// New constructs a root Logger from cfg.
func New(cfg Config) (*Logger, error) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if cfg.Color {
		encoderCfg.EncodeLevel = colorLevelEncoder
	}

	var cores []zapcore.Core
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), zapcore.DebugLevel))

	if cfg.File != "" {
		fileEncoderCfg := encoderCfg
		fileEncoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    10,
				MaxBackups: 5,
			}),
			zapcore.DebugLevel,
		)
		cores = append(cores, fileCore)
	}

	zapLogger := zap.New(zapcore.NewTee(cores...))
	return &Logger{core: zapLogger.Sugar(), minLevel: cfg.Level}, nil
}

// colorLevelEncoder colors the level string the way mutagen colors its
// Warn/Error output with fatih/color.
func colorLevelEncoder(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch lvl {
	case zapcore.ErrorLevel:
		enc.AppendString(color.RedString(lvl.String()))
	case zapcore.WarnLevel:
		enc.AppendString(color.YellowString(lvl.String()))
	default:
		enc.AppendString(lvl.String())
	}
}

// Sublogger creates a new sublogger with the specified name, sharing the
// root's sinks and level.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{core: l.core, minLevel: l.minLevel, prefix: prefix}
}

func (l *Logger) enabled(level Level) bool {
	return l != nil && l.minLevel >= level
}

func (l *Logger) line(msg string) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s", l.prefix, msg)
	}
	return msg
}

// Error logs error information at LevelError.
func (l *Logger) Error(err error) {
	if l.enabled(LevelError) {
		l.core.Error(l.line(err.Error()))
	}
}

// Warn logs error information at LevelWarn.
func (l *Logger) Warn(err error) {
	if l.enabled(LevelWarn) {
		l.core.Warn(l.line(err.Error()))
	}
}

// Info logs operational information at LevelInfo, with Printf-style
// arguments.
func (l *Logger) Info(format string, args ...any) {
	if l.enabled(LevelInfo) {
		l.core.Info(l.line(fmt.Sprintf(format, args...)))
	}
}

// Debug logs detailed execution information at LevelDebug.
func (l *Logger) Debug(format string, args ...any) {
	if l.enabled(LevelDebug) {
		l.core.Debug(l.line(fmt.Sprintf(format, args...)))
	}
}

// Trace logs low-level execution information at LevelTrace.
func (l *Logger) Trace(format string, args ...any) {
	if l.enabled(LevelTrace) {
		l.core.Debug(l.line(fmt.Sprintf(format, args...)))
	}
}

// Sync flushes any buffered log entries. Errors from syncing a terminal are
// expected and ignored, matching zap's documented caveat.
func (l *Logger) Sync() {
	if l != nil {
		_ = l.core.Sync()
	}
}
