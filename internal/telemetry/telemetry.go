// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package telemetry wraps zap for the demo harness in cmd/ntlockdemo.
// The ringq and arc packages never log: a spinning lock-free primitive
// must not allocate or block, and a logger call can do both.
package telemetry

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Conf holds the handful of knobs the demo harness needs from a logger.
// Mirrors the shape (not the scope) of a production Conf/SetDefaults/
// Validate logging config, trimmed to console-only output since
// cmd/ntlockdemo has no deployment story of its own.
type Conf struct {
	Level string // one of: debug, info, warn, error
}

// SetDefaults returns a Conf with sane defaults for local runs.
func SetDefaults() *Conf {
	return &Conf{Level: "info"}
}

// Validate checks the configured level is one zap understands.
func (c *Conf) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("telemetry: invalid level %q: %w", c.Level, err)
	}
	return nil
}

// New builds a console-output, human-readable *zap.SugaredLogger for the
// demo harness.
func New(conf *Conf) (*zap.SugaredLogger, error) {
	if conf == nil {
		conf = SetDefaults()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	level, err := zapcore.ParseLevel(conf.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("telemetry: build logger: %w", err)
	}

	return logger.Sugar(), nil
}
