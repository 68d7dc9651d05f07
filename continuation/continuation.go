// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package continuation implements Continuation: a sink passed to a running
// operation so it may yield intermediate results or errors before returning
// its terminal result.
package continuation

import "github.com/querykit/querykit/opctx"

// ResultUpdateReason distinguishes a yielded intermediate result from the
// run's final returned result, threaded through opctx for event handlers.
type ResultUpdateReason int

const (
	// YieldedResult marks a result delivered via Continuation.Yield* while
	// the run is still in progress.
	YieldedResult ResultUpdateReason = iota
	// ReturnedFinalResult marks the terminal result of a run.
	ReturnedFinalResult
)

// Result mirrors the Result<V, E> sum type: exactly one of Value/Err is set
// per the Ok flag.
type Result[V any, E error] struct {
	Value V
	Err   E
	Ok    bool
}

// OkResult constructs a successful Result.
func OkResult[V any, E error](v V) Result[V, E] {
	return Result[V, E]{Value: v, Ok: true}
}

// ErrResult constructs a failed Result.
func ErrResult[V any, E error](err E) Result[V, E] {
	return Result[V, E]{Err: err, Ok: false}
}

// Sink receives every value yielded (intermediate or terminal) during a run,
// each paired with the per-yield context (nil meaning "use the run's
// context unmodified").
type Sink[V any, E error] func(result Result[V, E], ctx *opctx.Context)

// Continuation is the sink object passed to an operation body.
type Continuation[V any, E error] struct {
	sink Sink[V, E]
}

// New creates a Continuation that forwards every yield to sink.
func New[V any, E error](sink Sink[V, E]) *Continuation[V, E] {
	return &Continuation[V, E]{sink: sink}
}

// Yield delivers a successful intermediate value.
func (c *Continuation[V, E]) Yield(value V, ctx *opctx.Context) {
	c.yield(OkResult[V, E](value), ctx)
}

// YieldError delivers a failed intermediate result.
func (c *Continuation[V, E]) YieldError(err E, ctx *opctx.Context) {
	c.yield(ErrResult[V, E](err), ctx)
}

// YieldResult delivers an already-constructed Result.
func (c *Continuation[V, E]) YieldResult(result Result[V, E], ctx *opctx.Context) {
	c.yield(result, ctx)
}

func (c *Continuation[V, E]) yield(result Result[V, E], ctx *opctx.Context) {
	if c == nil || c.sink == nil {
		return
	}
	c.sink(result, ctx)
}
