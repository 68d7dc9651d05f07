// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package controller implements Controller: an external driver that can
// yield results or trigger refetches into a store, installed via a
// modifier and cancelled when the store is evicted.
package controller

import (
	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/subscription"
)

// Controls is the surface a Controller drives a store through. A store
// implements Controls for its own Value/Failure types and passes itself to
// every registered Controller at construction.
type Controls[V any, E error] interface {
	// Yield writes a successful value directly into the store's state.
	Yield(value V, rc *opctx.Context)
	// YieldError writes a failure directly into the store's state.
	YieldError(err E, rc *opctx.Context)
	// YieldResult writes an already-constructed result directly into the
	// store's state.
	YieldResult(result continuation.Result[V, E], rc *opctx.Context)
	// YieldRefetch triggers a run, returning its result. The second
	// return is false (and the result zero) if automatic running is
	// disabled for this store.
	YieldRefetch(rc *opctx.Context) (continuation.Result[V, E], bool)
	// CanYieldRefetch reports whether YieldRefetch would actually run.
	CanYieldRefetch() bool
	// Context returns the store's default context.
	Context() *opctx.Context
}

// Controller is installed into a store via a modifier; Control is called
// once at store construction with the store's own Controls, and the
// returned Subscription is cancelled when the store is evicted.
type Controller[V any, E error] interface {
	Control(controls Controls[V, E]) *subscription.Subscription
}

// Func adapts a plain function to Controller.
type Func[V any, E error] func(controls Controls[V, E]) *subscription.Subscription

// Control invokes f.
func (f Func[V, E]) Control(controls Controls[V, E]) *subscription.Subscription {
	return f(controls)
}
