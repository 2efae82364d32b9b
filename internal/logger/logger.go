package logger

import (
	"fmt"

	"VoxelTerrain/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger from the log settings.
// Development mode uses the colored console encoder, otherwise JSON.
func New(settings config.LogSettings) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if settings.Level != "" {
		if err := level.UnmarshalText([]byte(settings.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", settings.Level, err)
		}
	}

	var cfg zap.Config
	if settings.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level
	if settings.Output != "" {
		cfg.OutputPaths = []string{settings.Output}
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
