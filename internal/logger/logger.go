// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global logger for the given environment and level.
// "production" gets the JSON encoder, everything else the console encoder.
// "test" silences output entirely. An unknown level falls back to info.
func Init(env, level string) {
	once.Do(func() {
		if env == "test" {
			sugar = zap.NewNop().Sugar()
			return
		}

		var cfg zap.Config
		if env == "production" {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
		}

		if level != "" {
			var lvl zapcore.Level
			if err := lvl.UnmarshalText([]byte(level)); err == nil {
				cfg.Level = zap.NewAtomicLevelAt(lvl)
			}
		}

		base, err := cfg.Build()
		if err != nil {
			base = zap.NewNop()
		}
		sugar = base.Sugar().With("service", "finanzas")
	})
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development", "")
	}
	return sugar
}

// Named returns a child logger tagged with a component name.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
