// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package client

import (
	"math/rand"

	"github.com/querykit/querykit/config"
	"github.com/querykit/querykit/duration"
	"github.com/querykit/querykit/modifier"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/resilience"
)

// defaultContextFromPolicy builds the base opctx.Context every store the
// client creates is seeded with, installing policy's backoff shape,
// delayer, and history clamp as the context's fallback values. A request's
// own modifiers (Backoff, MaxHistoryLength, ...) still take precedence:
// they call opctx.With on top of whatever this context already carries.
func defaultContextFromPolicy(policy *config.PolicyConfig) *opctx.Context {
	rc := opctx.New()
	if policy == nil {
		return rc
	}

	base := duration.FromTimeDuration(policy.Retry.BaseDelay)
	maxDelay := duration.FromTimeDuration(policy.Retry.MaxDelay)
	backoff := backoffForShape(policy.Retry.BackoffShape, base, maxDelay)

	rc = opctx.With(rc, modifier.BackoffKey, backoff)
	rc = opctx.With(rc, modifier.DelayerKey, resilience.TaskSleep())

	if policy.Modifiers.MaxHistoryLength > 0 {
		rc = opctx.With(rc, modifier.MaxHistoryLengthKey, policy.Modifiers.MaxHistoryLength)
	}

	return rc
}

// backoffForShape maps a policy's named backoff shape to a resilience
// BackoffFunc, clamping every shape's output at maxDelay when maxDelay is
// non-zero.
func backoffForShape(shape string, base, maxDelay duration.Duration) resilience.BackoffFunc {
	var f resilience.BackoffFunc
	switch shape {
	case "linear":
		f = resilience.Linear(base)
	case "exponential":
		f = resilience.Exponential(base)
	case "fibonacci":
		f = resilience.Fibonacci(base)
	case "jittered":
		f = resilience.Jittered(rand.New(rand.NewSource(1)), resilience.Exponential(base))
	case "constant", "":
		f = resilience.Constant(base)
	default:
		f = resilience.Constant(base)
	}
	if maxDelay.IsZero() {
		return f
	}
	return func(attempt int) duration.Duration {
		d := f(attempt)
		if maxDelay.LessThan(d) {
			return maxDelay
		}
		return d
	}
}
