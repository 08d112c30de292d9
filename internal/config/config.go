// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config loads cmd/ntlockdemo's tunables via viper, with cobra
// flag values taking precedence over an optional ntlockdemo.yaml and
// built-in defaults. It is the Go analogue of the original C demo's
// compiled-in FOOTHREAD{max_i, max_j, sleep_ms} struct.
package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Demo holds the tunables shared by cmd/ntlockdemo's subcommands.
type Demo struct {
	Producers  int           `mapstructure:"producers"`
	Consumers  int           `mapstructure:"consumers"`
	ItemsEach  int           `mapstructure:"items_each"`
	Bursts     int           `mapstructure:"bursts"`
	Capacity   int           `mapstructure:"capacity"`
	Sleep      time.Duration `mapstructure:"sleep"`
	LogLevel   string        `mapstructure:"log_level"`
}

func defaults() *Demo {
	return &Demo{
		Producers: 1,
		Consumers: 1,
		ItemsEach: 8,
		Bursts:    1,
		Capacity:  8,
		Sleep:     0,
		LogLevel:  "info",
	}
}

// Load builds a Demo config from, in increasing priority: built-in
// defaults, an optional ./ntlockdemo.yaml (or $HOME/ntlockdemo.yaml),
// and flags already bound into fs.
func Load(fs *pflag.FlagSet) (*Demo, error) {
	v := viper.New()
	v.SetConfigName("ntlockdemo")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	d := defaults()
	v.SetDefault("producers", d.Producers)
	v.SetDefault("consumers", d.Consumers)
	v.SetDefault("items_each", d.ItemsEach)
	v.SetDefault("bursts", d.Bursts)
	v.SetDefault("capacity", d.Capacity)
	v.SetDefault("sleep", d.Sleep)
	v.SetDefault("log_level", d.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Flags use hyphenated CLI-style names; map each explicitly onto its
	// underscored viper/mapstructure key rather than relying on
	// BindPFlags' name-for-name default, which would silently leave
	// e.g. "items-each" unbound from "items_each".
	if fs != nil {
		for key, flagName := range map[string]string{
			"producers":  "producers",
			"consumers":  "consumers",
			"items_each": "items-each",
			"bursts":     "bursts",
			"capacity":   "capacity",
			"sleep":      "sleep",
			"log_level":  "log-level",
		} {
			if fs.Lookup(flagName) == nil {
				continue
			}
			if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
				return nil, err
			}
		}
	}

	var out Demo
	if err := v.Unmarshal(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
