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

// Package metrics provides metrics collection and export for the operation
// runtime.
//
// # Overview
//
// This package provides a Prometheus-based metrics collector with support for:
//   - Counters (monotonic increasing values)
//   - Gauges (arbitrary values)
//   - Histograms (distribution of values)
//   - Summaries (quantiles)
//
// # Basic Usage
//
//	collector := metrics.NewPrometheusCollector()
//
//	// Increment counter
//	collector.IncrementCounter("requests_total", map[string]string{
//	    "method": "POST",
//	    "status": "200",
//	})
//
//	// Set gauge
//	collector.SetGauge("active_connections", 42, nil)
//
//	// Observe histogram
//	collector.ObserveHistogram("request_duration_seconds", 0.042, map[string]string{
//	    "endpoint": "/api/chat",
//	})
//
//	// Expose metrics
//	http.Handle("/metrics", collector.Handler())
//
// # Run Metrics
//
// Pre-defined metrics for task/run monitoring:
//
//	runMetrics := metrics.NewRunMetrics(collector)
//
//	// Record a completed run
//	runMetrics.RecordRun("users/1", "query", 0.042, true)
//
//	// Record a retry attempt
//	runMetrics.RecordRetry("users/1", 1)
//
//	// Update the active task gauge
//	runMetrics.SetActiveTasks(3)
//
// # Store Metrics
//
//	storeMetrics := metrics.NewStoreMetrics(collector)
//
//	// Record a request joining an in-flight run
//	storeMetrics.RecordDedupHit("users/1")
//
//	// Record a store evicted under memory pressure
//	storeMetrics.RecordCacheEviction("query")
//
// # Custom Metrics
//
// Create custom metric collectors:
//
//	type CustomMetrics struct {
//	    collector metrics.Collector
//	}
//
//	func (m *CustomMetrics) RecordCustomEvent(name string) {
//	    m.collector.IncrementCounter("custom_events_total", map[string]string{
//	        "event": name,
//	    })
//	}
package metrics
