package logger

import (
	"kawanchat/server/internal/config"

	"go.uber.org/zap"
)

// New builds the process logger. Development mode uses the console encoder.
func New(cfg config.Logger) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	return zc.Build()
}
