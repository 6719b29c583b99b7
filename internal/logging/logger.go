// Package logging builds the structured loggers used by plotd and plotctl.
// It wraps zap.Logger and allows configurable level, output streams and
// rotating file logging. Loggers are handed to components explicitly.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents the logging section of the daemon and client configs.
type Config struct {
	Level      string `mapstructure:"level"`       // "debug", "info", "warn", "error"
	ToStdout   bool   `mapstructure:"to_stdout"`   // Enable output to stdout
	ToStderr   bool   `mapstructure:"to_stderr"`   // Enable output to stderr
	ToFile     bool   `mapstructure:"to_file"`     // Enable output to file
	FilePath   string `mapstructure:"file"`        // Log file path, e.g. /var/log/plotd.log
	MaxSizeMB  int    `mapstructure:"max_size"`    // Max size before rotation (in MB)
	MaxAge     int    `mapstructure:"max_age"`     // Max age of logs (in days)
	MaxBackups int    `mapstructure:"max_backups"` // Number of rotated backups to keep
	Compress   bool   `mapstructure:"compress"`    // Gzip compress old log files
}

// DefaultConfig logs info and above to stdout.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		ToStdout: true,
	}
}

// New builds a sugared logger from cfg. An unknown level is an error; an
// empty level means info.
func New(cfg Config) (*zap.SugaredLogger, error) {
	var cores []zapcore.Core

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	if cfg.ToStdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if cfg.ToStderr {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level))
	}

	if cfg.ToFile {
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file logging enabled without a file path")
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder, writer, level))
	}

	if len(cores) == 0 {
		// Fallback: always log somewhere
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger.Sugar(), nil
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}
