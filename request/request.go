// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package request implements the operation-request trait: an immutable
// description of an asynchronous workflow a store can run. Query, Paginated,
// and Mutation are specializations built on top of the same base shape.
package request

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
)

// Request is an immutable description of an asynchronous workflow. Setup
// prepares a per-store context once, at store construction. Run may suspend
// and may yield intermediate results through cont before returning its
// terminal result.
type Request[V any, E error] interface {
	// Path identifies the store this request is bound to.
	Path() opath.Path

	// Setup augments rc with whatever the request needs installed in its
	// store's context. Called exactly once per store, at construction.
	// Idempotent: a second call must be safe and produce the same result.
	Setup(rc *opctx.Context) *opctx.Context

	// Run executes the request body. ctx carries cooperative cancellation;
	// rc is the request's context for this invocation; cont receives any
	// intermediate results prior to the terminal Result this returns.
	Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E]) continuation.Result[V, E]
}

// Query is a Request whose run is the body directly, with no additional
// dispatch. It exists as a named specialization for readability at call
// sites; a Query is interchangeable with any Request of the same shape.
type Query[V any, E error] interface {
	Request[V, E]
}
