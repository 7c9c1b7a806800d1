// Package logging builds the process logger: JSON files rotated by lumberjack,
// one per level, plus a human-readable console core.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// Directory receives per-level log files. Empty disables file output.
	Directory string
	// Level is the minimum level written anywhere (debug, info, warn, error).
	Level string
}

func New(opts Options) (*zap.Logger, error) {
	minLevel, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	cores := []zapcore.Core{newConsoleCore(minLevel)}
	if opts.Directory != "" {
		if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("could not create log directory: %w", err)
		}
		enc := zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			TimeKey:      "time",
			CallerKey:    "caller",
			EncodeLevel:  zapcore.CapitalLevelEncoder,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		}
		for _, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
			if lvl < minLevel {
				continue
			}
			cores = append(cores, newFileCore(opts.Directory, lvl, enc))
		}
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// newFileCore writes exactly one level to its own rotating file.
func newFileCore(dir string, level zapcore.Level, enc zapcore.EncoderConfig) zapcore.Core {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, level.String()+".log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	})
	only := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l == level })
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), writer, only)
}

func newConsoleCore(minLevel zapcore.Level) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(os.Stdout),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLevel }),
	)
}
