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

package metrics

const (
	// Run metrics
	MetricRunsTotal       = "querykit_runs_total"
	MetricRunDuration     = "querykit_run_duration_seconds"
	MetricRunErrorsTotal  = "querykit_run_errors_total"
	MetricRetryAttempts   = "querykit_retry_attempts_total"
	MetricActiveTasks     = "querykit_active_tasks"

	// Store/cache metrics
	MetricDedupHitsTotal    = "querykit_dedup_hits_total"
	MetricCacheEvictions    = "querykit_cache_evictions_total"
	MetricActiveStores      = "querykit_active_stores"
	MetricStoreSubscribers  = "querykit_store_subscribers"
)

// RunMetrics records run-lifecycle events for tasks executed by the
// controller and its modifiers.
type RunMetrics struct {
	collector Collector
}

// NewRunMetrics creates a new run metrics recorder.
func NewRunMetrics(collector Collector) *RunMetrics {
	return &RunMetrics{collector: collector}
}

// RecordRun records a completed run with its outcome and duration.
func (m *RunMetrics) RecordRun(path, requestType string, duration float64, succeeded bool) {
	labels := NewLabels("path", path, "request_type", requestType)
	m.collector.IncrementCounter(MetricRunsTotal, labels)
	m.collector.ObserveHistogram(MetricRunDuration, duration, labels)
	if !succeeded {
		m.collector.IncrementCounter(MetricRunErrorsTotal, labels)
	}
}

// RecordRetry records a single retry attempt.
func (m *RunMetrics) RecordRetry(path string, attempt int) {
	m.collector.IncrementCounter(MetricRetryAttempts, NewLabels("path", path))
}

// SetActiveTasks sets the current number of in-flight tasks.
func (m *RunMetrics) SetActiveTasks(count float64) {
	m.collector.SetGauge(MetricActiveTasks, count, NoLabels())
}

// StoreMetrics records store-pool and deduplication events.
type StoreMetrics struct {
	collector Collector
}

// NewStoreMetrics creates a new store metrics recorder.
func NewStoreMetrics(collector Collector) *StoreMetrics {
	return &StoreMetrics{collector: collector}
}

// RecordDedupHit records a request joining an already in-flight run instead
// of starting a new one.
func (m *StoreMetrics) RecordDedupHit(path string) {
	m.collector.IncrementCounter(MetricDedupHitsTotal, NewLabels("path", path))
}

// RecordCacheEviction records a store evicted from a client's store cache
// under memory pressure.
func (m *StoreMetrics) RecordCacheEviction(requestType string) {
	m.collector.IncrementCounter(MetricCacheEvictions, NewLabels("request_type", requestType))
}

// SetActiveStores sets the number of stores currently held by a client.
func (m *StoreMetrics) SetActiveStores(count float64) {
	m.collector.SetGauge(MetricActiveStores, count, NoLabels())
}

// SetSubscribers sets the subscriber count for a given store path.
func (m *StoreMetrics) SetSubscribers(path string, count float64) {
	m.collector.SetGauge(MetricStoreSubscribers, count, NewLabels("path", path))
}
