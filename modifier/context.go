// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package modifier implements the built-in request modifiers: composable
// wrappers around a request.Request that intercept Setup and Run to add
// retry, backoff, deduplication, event hooks, staleness, and automatic-run
// gating without changing the base request's Value/Failure types.
package modifier

import (
	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/resilience"
)

// BackoffKey carries the active backoff function, installed by Backoff and
// read by Retry. Its default is NoBackoff so a Retry with no Backoff
// modifier ahead of it never waits between attempts.
var BackoffKey = opctx.NewKey[resilience.BackoffFunc]("backoff_function", resilience.NoBackoff())

// DelayerKey carries the active sleep primitive, installed by Delayer and
// read by Retry.
var DelayerKey = opctx.NewKey[resilience.Delayer]("delayer", resilience.TaskSleep())

// RetryIndexKey carries the current attempt's retry index: nil on the first
// attempt, pointing at k-1 on retry k. IsFirstRunAttempt is equivalent to
// this key holding nil.
var RetryIndexKey = opctx.NewKey[*int]("retry_index", nil)

// ResultUpdateReasonKey carries why HandleEvents' on_result_received fired:
// an intermediate yield or the run's terminal result.
var ResultUpdateReasonKey = opctx.NewKey[continuation.ResultUpdateReason]("result_update_reason", continuation.ReturnedFinalResult)

// IsFirstRunAttempt reports whether rc represents the first attempt of a
// run (as opposed to a retry).
func IsFirstRunAttempt(rc *opctx.Context) bool {
	return opctx.Get(rc, RetryIndexKey) == nil
}
