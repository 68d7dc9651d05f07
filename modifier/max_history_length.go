// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
)

// MaxHistoryLengthKey carries the configured history clamp for a mutation
// store; 0 means "use the state's own default".
var MaxHistoryLengthKey = opctx.NewKey[int]("max_history_length", 0)

type maxHistoryLengthModifier[V any, E error] struct {
	n int
}

// MaxHistoryLength clamps a mutation's history to at most n entries. It
// panics if n is not positive: this is a construction-time precondition,
// not a runtime failure a caller can recover from.
func MaxHistoryLength[V any, E error](n int) Modifier[V, E] {
	if n <= 0 {
		panic("modifier: MaxHistoryLength requires n > 0")
	}
	return &maxHistoryLengthModifier[V, E]{n: n}
}

func (m *maxHistoryLengthModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(opctx.With(rc, MaxHistoryLengthKey, m.n))
}

func (m *maxHistoryLengthModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, opctx.With(rc, MaxHistoryLengthKey, m.n), cont)
}
