// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package request

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
)

// argumentsKey carries the arguments passed to Store.Mutate into the run's
// context, boxed as any since the argument type varies per Mutation
// instantiation.
var argumentsKey = opctx.NewKey[any]("mutation.arguments", nil)

// WithArguments installs args into rc for a mutation run to read back via
// Arguments.
func WithArguments[A any](rc *opctx.Context, args A) *opctx.Context {
	return opctx.With(rc, argumentsKey, any(args))
}

// Arguments reads back the arguments installed by WithArguments, or the
// zero value of A if none were installed.
func Arguments[A any](rc *opctx.Context) A {
	v := opctx.Get(rc, argumentsKey)
	a, _ := v.(A)
	return a
}

// Mutation is a Request specialization whose run reads its arguments from
// rc (installed by the store when Mutate is invoked) and executes Mutate.
type Mutation[A any, V any, E error] interface {
	Path() opath.Path
	Setup(rc *opctx.Context) *opctx.Context

	// Mutate performs the mutation against args, yielding intermediates
	// through cont prior to its terminal result.
	Mutate(args A, rc *opctx.Context, cont *continuation.Continuation[V, E]) continuation.Result[V, E]
}

// AsMutationRequest adapts a Mutation into a Request whose run reads its
// arguments from rc via Arguments and forwards to Mutate.
func AsMutationRequest[A any, V any, E error](m Mutation[A, V, E]) Request[V, E] {
	return &mutationRequest[A, V, E]{m: m}
}

type mutationRequest[A any, V any, E error] struct {
	m Mutation[A, V, E]
}

func (r *mutationRequest[A, V, E]) Path() opath.Path { return r.m.Path() }

func (r *mutationRequest[A, V, E]) Setup(rc *opctx.Context) *opctx.Context {
	return r.m.Setup(rc)
}

func (r *mutationRequest[A, V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E]) continuation.Result[V, E] {
	args := Arguments[A](rc)
	return r.m.Mutate(args, rc, cont)
}
