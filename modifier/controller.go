// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/controller"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
)

// ControllersKey carries the list of controllers registered against a
// store, boxed as any since the element type (controller.Controller[V,E])
// varies per store instantiation; the store type-asserts it back to
// []controller.Controller[V,E] for its own V,E at construction.
var ControllersKey = opctx.NewKey[any]("controllers", nil)

type withController[V any, E error] struct {
	c controller.Controller[V, E]
}

// WithController registers c against whichever store this request ends up
// bound to, accumulating into a copied list the same way RerunOnChange
// does (here boxed as any, see ControllersKey).
func WithController[V any, E error](c controller.Controller[V, E]) Modifier[V, E] {
	return &withController[V, E]{c: c}
}

func (m *withController[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(m.apply(rc))
}

func (m *withController[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, m.apply(rc), cont)
}

func (m *withController[V, E]) apply(rc *opctx.Context) *opctx.Context {
	existing, _ := opctx.Get(rc, ControllersKey).([]controller.Controller[V, E])
	next := make([]controller.Controller[V, E], len(existing), len(existing)+1)
	copy(next, existing)
	next = append(next, m.c)
	return opctx.With(rc, ControllersKey, any(next))
}

// ControllersFrom reads back the controllers registered for a store's V,E.
func ControllersFrom[V any, E error](rc *opctx.Context) []controller.Controller[V, E] {
	ctrls, _ := opctx.Get(rc, ControllersKey).([]controller.Controller[V, E])
	return ctrls
}
