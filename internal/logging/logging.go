// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package logging maps the closed logging.level configuration key to a
// zap.Logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the closed set of levels accepted by the logging.level
// configuration key.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
	LevelTrace Level = "trace"
)

// zapLevel maps Level to the nearest zapcore level. zap has no "trace"
// level of its own; trace maps to debug, the most verbose level zap
// offers, rather than inventing a custom level that every downstream
// zap sink would need to understand.
func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelDebug, LevelTrace:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a zap.Logger at the given level. development selects
// zap.NewDevelopment's human-readable console encoding over
// zap.NewProduction's JSON encoding, for interactive `metalls` CLI runs
// versus a `metalls serve` process whose stderr a client captures as
// structured log lines.
func New(level Level, development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building zap logger: %w", err)
	}
	return logger, nil
}
