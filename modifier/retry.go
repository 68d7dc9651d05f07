// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
)

type retryModifier[V any, E error] struct {
	limit int
}

// Retry invokes base for attempts 0..limit. On a failed attempt that is not
// the last, it sleeps for backoff_fn(attempt+1) via the active delayer
// before retrying. The final attempt's result is always propagated, even on
// failure. It never synthesizes a cancellation error: if the delayer's
// sleep is interrupted, the last attempt's own result is returned as-is,
// and cooperative cancellation is left to the base.
func Retry[V any, E error](limit int) Modifier[V, E] {
	return &retryModifier[V, E]{limit: limit}
}

func (m *retryModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(rc)
}

func (m *retryModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	var result continuation.Result[V, E]

	for attempt := 0; attempt <= m.limit; attempt++ {
		attemptCtx := opctx.With(rc, RetryIndexKey, retryIndexFor(attempt))

		result = base.Run(ctx, attemptCtx, cont)
		if result.Ok || attempt == m.limit {
			return result
		}

		backoffFn := opctx.Get(rc, BackoffKey)
		delayer := opctx.Get(rc, DelayerKey)
		if err := delayer.Sleep(ctx, backoffFn(attempt+1)); err != nil {
			return result
		}
	}

	return result
}

func retryIndexFor(attempt int) *int {
	if attempt == 0 {
		return nil
	}
	idx := attempt - 1
	return &idx
}
