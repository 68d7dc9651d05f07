// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import "time"

// PolicyConfig is the complete default-policy configuration for the
// operation runtime. The client reads only the backoff shape, the delay
// bounds and the history length from it, as context fallbacks a request's
// own modifiers override.
type PolicyConfig struct {
	Retry     RetryPolicy     `mapstructure:"retry" yaml:"retry"`
	Modifiers ModifierPolicy  `mapstructure:"modifiers" yaml:"modifiers"`
	Logging   LoggingPolicy   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsPolicy   `mapstructure:"metrics" yaml:"metrics"`
	TestMode  bool            `mapstructure:"test_mode" yaml:"test_mode"`
}

// RetryPolicy holds the default retry and backoff settings (§4.1). The
// backoff fields become the stores' fallback backoff; MaxAttempts is not
// read outside this package, and no Retry modifier is applied by default.
type RetryPolicy struct {
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BackoffShape string        `mapstructure:"backoff_shape" yaml:"backoff_shape"` // "constant", "linear", "exponential", "fibonacci", "jittered"
	BaseDelay    time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// ModifierPolicy holds defaults for the remaining modifiers (§4.2, §4.3).
// MaxHistoryLength becomes the stores' fallback history bound; DedupEnabled
// is not read outside this package.
type ModifierPolicy struct {
	DedupEnabled     bool `mapstructure:"dedup_enabled" yaml:"dedup_enabled"`
	MaxHistoryLength int  `mapstructure:"max_history_length" yaml:"max_history_length"`
}

// LoggingPolicy describes the default observability/logging.Logger. It is
// loaded and validated but not read by the client, whose default logger is
// fixed at Info level.
type LoggingPolicy struct {
	Level  string `mapstructure:"level" yaml:"level"`   // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "json" is the only supported format
}

// MetricsPolicy describes the default observability/metrics.Collector
// exposition. It is loaded and validated but not read by the client, whose
// default collector is a no-op.
type MetricsPolicy struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port" yaml:"port"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// DefaultPolicy returns the policy a store uses when a request specifies no
// modifiers of its own.
func DefaultPolicy() *PolicyConfig {
	return &PolicyConfig{
		Retry: RetryPolicy{
			MaxAttempts:  3,
			BackoffShape: "exponential",
			BaseDelay:    200 * time.Millisecond,
			MaxDelay:     30 * time.Second,
		},
		Modifiers: ModifierPolicy{
			DedupEnabled:     true,
			MaxHistoryLength: 25,
		},
		Logging: LoggingPolicy{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsPolicy{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// TestPolicy returns a policy tuned for deterministic tests: no retries, no
// delays, a frozen clock is expected to be supplied separately via
// duration.Custom/TimeFreeze.
func TestPolicy() *PolicyConfig {
	p := DefaultPolicy()
	p.TestMode = true
	p.Retry.MaxAttempts = 1
	p.Retry.BaseDelay = 0
	p.Retry.MaxDelay = 0
	p.Modifiers.DedupEnabled = false
	return p
}
