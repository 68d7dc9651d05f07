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

import "testing"

func TestValidateRetry(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PolicyConfig)
		wantErr bool
	}{
		{"valid", func(c *PolicyConfig) {}, false},
		{"negative max attempts", func(c *PolicyConfig) { c.Retry.MaxAttempts = -1 }, true},
		{"invalid backoff shape", func(c *PolicyConfig) { c.Retry.BackoffShape = "bogus" }, true},
		{"negative base delay", func(c *PolicyConfig) { c.Retry.BaseDelay = -1 }, true},
		{"max delay less than base delay", func(c *PolicyConfig) {
			c.Retry.BaseDelay = 10
			c.Retry.MaxDelay = 5
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPolicy()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateModifiers(t *testing.T) {
	cfg := DefaultPolicy()
	cfg.Modifiers.MaxHistoryLength = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max history length")
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := DefaultPolicy()
	cfg.Logging.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid logging level")
	}

	cfg = DefaultPolicy()
	cfg.Logging.Format = "text"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid logging format")
	}
}

func TestValidateMetrics(t *testing.T) {
	cfg := DefaultPolicy()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid metrics port")
	}

	cfg.Metrics.Port = 9090
	cfg.Metrics.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty metrics path")
	}

	// Disabled metrics skip port/path validation entirely.
	cfg = DefaultPolicy()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = -1
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled metrics should skip validation, got: %v", err)
	}
}
