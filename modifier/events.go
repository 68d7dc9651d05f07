// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
)

// EventHandler receives lifecycle notifications from HandleEvents. Any
// field left nil is simply not invoked.
type EventHandler[V any, E error] struct {
	OnRunStarted     func(rc *opctx.Context)
	OnResultReceived func(result continuation.Result[V, E], rc *opctx.Context)
	OnRunEnded       func(rc *opctx.Context)
}

type handleEventsModifier[V any, E error] struct {
	handler EventHandler[V, E]
}

// HandleEvents fires handler.OnRunStarted before the base run, handler.
// OnResultReceived on every yielded or terminal result, and handler.
// OnRunEnded always on exit.
func HandleEvents[V any, E error](handler EventHandler[V, E]) Modifier[V, E] {
	return &handleEventsModifier[V, E]{handler: handler}
}

func (m *handleEventsModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(rc)
}

func (m *handleEventsModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	if m.handler.OnRunStarted != nil {
		m.handler.OnRunStarted(rc)
	}
	defer func() {
		if m.handler.OnRunEnded != nil {
			m.handler.OnRunEnded(rc)
		}
	}()

	wrapped := continuation.New(func(result continuation.Result[V, E], yieldCtx *opctx.Context) {
		if m.handler.OnResultReceived != nil {
			eventCtx := opctx.With(contextOrDefault(yieldCtx, rc), ResultUpdateReasonKey, continuation.YieldedResult)
			m.handler.OnResultReceived(result, eventCtx)
		}
		cont.YieldResult(result, yieldCtx)
	})

	result := base.Run(ctx, rc, wrapped)

	if m.handler.OnResultReceived != nil {
		finalCtx := opctx.With(rc, ResultUpdateReasonKey, continuation.ReturnedFinalResult)
		m.handler.OnResultReceived(result, finalCtx)
	}

	return result
}

func contextOrDefault(rc, fallback *opctx.Context) *opctx.Context {
	if rc != nil {
		return rc
	}
	return fallback
}
