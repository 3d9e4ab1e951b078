// Package logging builds the application's zap logger from config.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-resolver/framework/config"
)

// New returns a production logger in production and a development logger
// everywhere else, at the configured level and encoding.
//
//	logger, err := logging.New(cfg.Log, cfg.App.Env)
//	defer logger.Sync()
func New(cfg config.LogConfig, env string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	var zc zap.Config
	if env == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format != "" {
		zc.Encoding = cfg.Format
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return logger, nil
}

// Must is New for main packages. It panics on error.
func Must(cfg config.LogConfig, env string) *zap.Logger {
	logger, err := New(cfg, env)
	if err != nil {
		panic(err)
	}
	return logger
}
