// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package resilience provides the pluggable sleep primitive (Delayer) and
// the family of backoff functions used by the retry modifier. It is
// grounded directly on the teacher's core/resilience package
// (ConstantBackoff/LinearBackoff/ExponentialBackoff), extended with the
// Fibonacci and jittered variants the spec requires.
package resilience

import (
	"math"
	"math/rand"

	"github.com/querykit/querykit/duration"
)

// BackoffFunc computes the delay before retry attempt n (1-indexed: the
// delay waited before the first retry is BackoffFunc(1)).
type BackoffFunc func(attempt int) duration.Duration

// NoBackoff always returns a zero delay.
func NoBackoff() BackoffFunc {
	return func(attempt int) duration.Duration { return duration.Zero }
}

// Constant returns a backoff strategy with a fixed delay.
func Constant(delay duration.Duration) BackoffFunc {
	return func(attempt int) duration.Duration { return delay }
}

// Linear returns a backoff strategy that scales linearly with the attempt
// number: delay * n.
func Linear(delay duration.Duration) BackoffFunc {
	return func(attempt int) duration.Duration {
		return delay.MulInt(int64(attempt))
	}
}

// Exponential returns a backoff strategy of delay * 2^(n-1).
func Exponential(delay duration.Duration) BackoffFunc {
	return func(attempt int) duration.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return delay.MulInt(int64(math.Pow(2, float64(attempt-1))))
	}
}

// Fibonacci returns a backoff strategy of delay * fib(n), fib(1)=fib(2)=1.
func Fibonacci(delay duration.Duration) BackoffFunc {
	return func(attempt int) duration.Duration {
		return delay.MulInt(int64(fib(attempt)))
	}
}

func fib(n int) int {
	if n < 1 {
		n = 1
	}
	a, b := 1, 1
	for i := 2; i <= n; i++ {
		a, b = b, a+b
	}
	return a
}

// Jittered wraps a backoff strategy so it instead returns a uniformly
// random duration in [0, f(n)).
func Jittered(rng *rand.Rand, f BackoffFunc) BackoffFunc {
	return func(attempt int) duration.Duration {
		upper := f(attempt)
		return duration.RandomInRange(rng, duration.Zero, upper)
	}
}
