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

import "fmt"

// Validate validates the entire policy configuration.
func (c *PolicyConfig) Validate() error {
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateModifiers(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return nil
}

func (c *PolicyConfig) validateRetry() error {
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry max attempts must not be negative")
	}

	validShapes := map[string]bool{
		"constant":    true,
		"linear":      true,
		"exponential": true,
		"fibonacci":   true,
		"jittered":    true,
	}
	if !validShapes[c.Retry.BackoffShape] {
		return fmt.Errorf("retry backoff shape must be one of: constant, linear, exponential, fibonacci, jittered")
	}

	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry base delay must not be negative")
	}

	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry max delay must not be less than base delay")
	}

	return nil
}

func (c *PolicyConfig) validateModifiers() error {
	if c.Modifiers.MaxHistoryLength <= 0 {
		return fmt.Errorf("max history length must be greater than zero")
	}
	return nil
}

func (c *PolicyConfig) validateLogging() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" {
		return fmt.Errorf("logging format must be json")
	}
	return nil
}

func (c *PolicyConfig) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics port must be between 1 and 65535")
	}
	if c.Metrics.Path == "" {
		return fmt.Errorf("metrics path must not be empty")
	}
	return nil
}
