// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	mu    sync.Mutex
)

// Init initializes the global logger for the given environment and level.
// For "production", it uses a JSON encoder. For all other environments,
// it uses a human-readable console encoder. An unknown level falls back to
// the environment's default.
func Init(env, level string) {
	mu.Lock()
	defer mu.Unlock()

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	sugar = base.Sugar()
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	mu.Lock()
	initialized := sugar != nil
	mu.Unlock()
	if !initialized {
		Init("development", "")
	}

	mu.Lock()
	defer mu.Unlock()
	return sugar
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		_ = sugar.Sync()
	}
}
