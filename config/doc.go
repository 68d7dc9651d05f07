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

// Package config provides the default-policy configuration for the
// operation runtime, loaded with github.com/spf13/viper.
//
// A client given a PolicyConfig (client.WithPolicy) seeds every store's
// context with the backoff shape and delay bounds, a task-sleep delayer, and
// the mutation history length as fallback values. No Retry or Deduplicated
// modifier is applied by default: the retry count, the deduplication toggle,
// and the logging and metrics sections are loaded and validated here but are
// not read by the client.
//
// # Configuration Structure
//
//   - Retry: default retry count and backoff shape/bounds
//   - Modifiers: deduplication toggle, mutation history length
//   - Logging: default observability/logging.Logger level/format
//   - Metrics: default observability/metrics.Collector exposition
//
// # Usage
//
//	cfg, err := config.LoadFromFile("policy.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment variable override (QUERYKIT_<SECTION>_<FIELD>):
//
//	export QUERYKIT_RETRY_MAX_ATTEMPTS=5
//	export QUERYKIT_MODIFIERS_MAX_HISTORY_LENGTH=50
//
// # Validation
//
// All configuration is validated before use; see PolicyConfig.Validate for
// the complete rule set.
package config
