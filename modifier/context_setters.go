// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/duration"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/resilience"
)

type backoffModifier[V any, E error] struct {
	fn resilience.BackoffFunc
}

// Backoff installs fn as the backoff function Retry consults.
func Backoff[V any, E error](fn resilience.BackoffFunc) Modifier[V, E] {
	return &backoffModifier[V, E]{fn: fn}
}

func (m *backoffModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(opctx.With(rc, BackoffKey, m.fn))
}

func (m *backoffModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, opctx.With(rc, BackoffKey, m.fn), cont)
}

type delayerModifier[V any, E error] struct {
	delayer resilience.Delayer
}

// Delayer installs d as the sleep primitive Retry consults.
func Delayer[V any, E error](d resilience.Delayer) Modifier[V, E] {
	return &delayerModifier[V, E]{delayer: d}
}

func (m *delayerModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(opctx.With(rc, DelayerKey, m.delayer))
}

func (m *delayerModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, opctx.With(rc, DelayerKey, m.delayer), cont)
}

type clockModifier[V any, E error] struct {
	clock duration.Clock
}

// Clock installs c as the clock the run and its state container observe.
func Clock[V any, E error](c duration.Clock) Modifier[V, E] {
	return &clockModifier[V, E]{clock: c}
}

func (m *clockModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(opctx.With(rc, duration.ClockKey, m.clock))
}

func (m *clockModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, opctx.With(rc, duration.ClockKey, m.clock), cont)
}
