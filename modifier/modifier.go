// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
)

// Modifier wraps a base request, intercepting Setup and Run. It does not
// change the base's Value/Failure types.
type Modifier[V any, E error] interface {
	// Setup typically augments rc then forwards to base.Setup(rc).
	Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context
	// Run decides whether and how to invoke base.Run.
	Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E]
}

// Modified is a request.Request produced by applying a Modifier to a base
// request. Composition is linear: wrapping a Modified with another Modifier
// makes the outer modifier see the inner modifier's context changes only
// after calling through.
type Modified[V any, E error] struct {
	Base request.Request[V, E]
	Mod  Modifier[V, E]
}

// Wrap applies mod to base, returning a request.Request.
func Wrap[V any, E error](base request.Request[V, E], mod Modifier[V, E]) request.Request[V, E] {
	return &Modified[V, E]{Base: base, Mod: mod}
}

// Compose applies mods to base in order, so the last modifier in mods is
// outermost: its Run is entered first and decides whether to call through,
// and it sees the earlier modifiers' context changes only in what their
// Setup returns after it calls through.
func Compose[V any, E error](base request.Request[V, E], mods ...Modifier[V, E]) request.Request[V, E] {
	result := base
	for _, mod := range mods {
		result = Wrap(result, mod)
	}
	return result
}

// Path delegates to the base request.
func (m *Modified[V, E]) Path() opath.Path { return m.Base.Path() }

// Setup delegates to the modifier, which decides how and whether to call
// through to the base.
func (m *Modified[V, E]) Setup(rc *opctx.Context) *opctx.Context {
	return m.Mod.Setup(rc, m.Base)
}

// Run delegates to the modifier, which decides how and whether to call
// through to the base.
func (m *Modified[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E]) continuation.Result[V, E] {
	return m.Mod.Run(ctx, rc, cont, m.Base)
}
