// Package logging builds the process-wide zap logger, with optional
// file rotation.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// New returns a JSON logger at the configured level. With a file
// configured, output goes through lumberjack rotation; otherwise stdout.
func New(config Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var sink zapcore.WriteSyncer
	if config.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    orDefault(config.MaxSizeMB, 50),
			MaxBackups: orDefault(config.MaxBackups, 5),
			MaxAge:     orDefault(config.MaxAgeDays, 30),
			Compress:   true,
		})
	} else {
		sink = zapcore.AddSync(os.Stdout)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	return zap.New(core, zap.AddCaller()), nil
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
