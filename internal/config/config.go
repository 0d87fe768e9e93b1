// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the closed-schema server configuration from
// flags, environment variables, and an optional config file, layering
// declared defaults under whatever the user supplied.
package config

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Formatting is the formatting.* configuration block.
type Formatting struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// Diagnostics is the diagnostics.* configuration block.
type Diagnostics struct {
	OnType     bool   `mapstructure:"onType"`
	OnSave     bool   `mapstructure:"onSave"`
	DebounceMs int    `mapstructure:"debounceMs"`
	Scope      string `mapstructure:"scope"` // "openFiles" | "workspace"
}

// Indexing is the indexing.* configuration block.
type Indexing struct {
	Enabled              bool     `mapstructure:"enabled"`
	Concurrency          int      `mapstructure:"concurrency"`
	MaxFileSizeKb        int      `mapstructure:"maxFileSizeKb"`
	ProjectGraphDepth    int      `mapstructure:"projectGraphDepth"`
	ProjectGraphMaxNodes int      `mapstructure:"projectGraphMaxNodes"`
	ExcludePaths         []string `mapstructure:"excludePaths"`
}

// Compiler is the compiler.* configuration block.
type Compiler struct {
	IncludePaths []string `mapstructure:"includePaths"`
	ExtraFlags   []string `mapstructure:"extraFlags"`
	Platform     string   `mapstructure:"platform"` // "auto"|"macos"|"ios"|"tvos"|"watchos"|"xros"|"none"
}

// Logging is the logging.* configuration block.
type Logging struct {
	Level string `mapstructure:"level"` // "error"|"warn"|"info"|"debug"|"trace"
}

// ThreadPool is the threadPool.* configuration block. Changing either
// field requires a session restart (§9 Design Notes): 0 means
// available_parallelism.
type ThreadPool struct {
	WorkerThreads     int `mapstructure:"workerThreads"`
	FormattingThreads int `mapstructure:"formattingThreads"`
}

// Config is the full closed-schema server configuration.
type Config struct {
	Formatting  Formatting  `mapstructure:"formatting"`
	Diagnostics Diagnostics `mapstructure:"diagnostics"`
	Indexing    Indexing    `mapstructure:"indexing"`
	Compiler    Compiler    `mapstructure:"compiler"`
	Logging     Logging     `mapstructure:"logging"`
	ThreadPool  ThreadPool  `mapstructure:"threadPool"`
}

// Defaults returns the declared default configuration, layered under
// user-supplied values by Load via mergo rather than a hand-written
// field-by-field filler.
func Defaults() Config {
	return Config{
		Formatting: Formatting{
			Enabled: true,
			Command: "clang-format",
		},
		Diagnostics: Diagnostics{
			OnType:     true,
			OnSave:     true,
			DebounceMs: 500,
			Scope:      "openFiles",
		},
		Indexing: Indexing{
			Enabled:              true,
			Concurrency:          4,
			MaxFileSizeKb:        1024,
			ProjectGraphDepth:    3,
			ProjectGraphMaxNodes: 256,
		},
		Compiler: Compiler{
			Platform: "auto",
		},
		Logging: Logging{
			Level: "info",
		},
		ThreadPool: ThreadPool{
			WorkerThreads:     0,
			FormattingThreads: 1,
		},
	}
}

// Load reads configuration from, in ascending precedence: declared
// defaults, an optional .metalls.yaml/.metalls.toml in configPaths,
// METALLS_-prefixed environment variables, and flags bound to fs.
// Mirrors the teacher's viper.SetEnvPrefix/BindPFlag/ReadInConfig flow
// in cmd/go-coder/main.go, generalized from flat keys to the nested
// schema above.
func Load(fs *pflag.FlagSet, configPaths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName(".metalls")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("METALLS")
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("config: binding flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return Config{}, fmt.Errorf("config: unmarshalling: %w", err)
	}

	merged := Defaults()
	if err := mergo.Merge(&merged, loaded, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("config: merging defaults: %w", err)
	}
	applyExplicitBools(&merged, v)
	return merged, nil
}

// applyExplicitBools corrects a gap in mergo.WithOverride: it never lets
// a non-empty default (true) be overridden by an explicit zero value
// (false), because loaded's zero-valued bool fields are indistinguishable
// from "not set" once viper has unmarshalled into the Go struct. viper
// itself does track which keys actually came from a file/env/flag, so
// the boolean keys that default to true are re-applied straight from it
// here, field by field, when the user actually set them.
func applyExplicitBools(cfg *Config, v *viper.Viper) {
	for key, dst := range map[string]*bool{
		"formatting.enabled": &cfg.Formatting.Enabled,
		"diagnostics.onType": &cfg.Diagnostics.OnType,
		"diagnostics.onSave": &cfg.Diagnostics.OnSave,
		"indexing.enabled":   &cfg.Indexing.Enabled,
	} {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
}
