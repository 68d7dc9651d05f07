// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package resilience

import (
	"context"
	"time"

	"github.com/querykit/querykit/duration"
)

// Delayer is a pluggable sleep primitive; every call is a cancellation
// opportunity.
type Delayer interface {
	// Sleep blocks for d or until ctx is cancelled, whichever comes
	// first. Returns ctx.Err() on cancellation, nil otherwise.
	Sleep(ctx context.Context, d duration.Duration) error
}

type delayerFunc func(ctx context.Context, d duration.Duration) error

func (f delayerFunc) Sleep(ctx context.Context, d duration.Duration) error { return f(ctx, d) }

// TaskSleep returns a Delayer backed by a real timer (time.After).
func TaskSleep() Delayer {
	return delayerFunc(func(ctx context.Context, d duration.Duration) error {
		if d.IsZero() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		}
		timer := time.NewTimer(d.TimeDuration())
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}

// NoDelay returns a Delayer that never actually sleeps, only honoring
// cancellation. Used by the test-mode policy.
func NoDelay() Delayer {
	return delayerFunc(func(ctx context.Context, d duration.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	})
}

// Adapter wraps an arbitrary sleep primitive fn(ctx, time.Duration) error as
// a Delayer.
func Adapter(fn func(ctx context.Context, d time.Duration) error) Delayer {
	return delayerFunc(func(ctx context.Context, d duration.Duration) error {
		return fn(ctx, d.TimeDuration())
	})
}
