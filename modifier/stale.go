// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/runspec"
)

// StalePredicateKey carries the chain of staleness predicates installed by
// StaleWhen; the store's is_stale is their logical OR.
var StalePredicateKey = opctx.NewKey[runspec.Spec]("stale_predicate", runspec.Always(false))

// RerunOnChangeKey carries the specs installed by RerunOnChange; the store
// watches each for a false-to-true transition and schedules a refetch.
var RerunOnChangeKey = opctx.NewKey[[]runspec.Spec]("rerun_on_change_specs", nil)

// AutomaticRunningKey gates whether the store may auto-run; the default
// (Always(true)) imposes no restriction. Multiple EnableAutomaticRunning
// modifiers combine with AND.
var AutomaticRunningKey = opctx.NewKey[runspec.Spec]("automatic_running_spec", runspec.Always(true))

type staleWhenModifier[V any, E error] struct {
	spec runspec.Spec
}

// StaleWhen appends spec to the chain of staleness predicates a store
// consults: is_stale is true whenever any installed predicate is satisfied.
func StaleWhen[V any, E error](spec runspec.Spec) Modifier[V, E] {
	return &staleWhenModifier[V, E]{spec: spec}
}

func (m *staleWhenModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(m.apply(rc))
}

func (m *staleWhenModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, m.apply(rc), cont)
}

func (m *staleWhenModifier[V, E]) apply(rc *opctx.Context) *opctx.Context {
	existing := opctx.Get(rc, StalePredicateKey)
	return opctx.With(rc, StalePredicateKey, runspec.Or(existing, m.spec))
}

type rerunOnChangeModifier[V any, E error] struct {
	spec runspec.Spec
}

// RerunOnChange registers spec with the store: whenever spec.IsSatisfied
// transitions from false to true, the store schedules a refetch.
func RerunOnChange[V any, E error](spec runspec.Spec) Modifier[V, E] {
	return &rerunOnChangeModifier[V, E]{spec: spec}
}

func (m *rerunOnChangeModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(m.apply(rc))
}

func (m *rerunOnChangeModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, m.apply(rc), cont)
}

func (m *rerunOnChangeModifier[V, E]) apply(rc *opctx.Context) *opctx.Context {
	existing := opctx.Get(rc, RerunOnChangeKey)
	next := make([]runspec.Spec, len(existing), len(existing)+1)
	copy(next, existing)
	next = append(next, m.spec)
	return opctx.With(rc, RerunOnChangeKey, next)
}

type enableAutomaticRunningModifier[V any, E error] struct {
	spec runspec.Spec
}

// EnableAutomaticRunning gates the store's automatic-run triggers (first
// subscribe while stale, spec transitions, controller-driven refetches)
// behind spec.IsSatisfied.
func EnableAutomaticRunning[V any, E error](spec runspec.Spec) Modifier[V, E] {
	return &enableAutomaticRunningModifier[V, E]{spec: spec}
}

func (m *enableAutomaticRunningModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(m.apply(rc))
}

func (m *enableAutomaticRunningModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, m.apply(rc), cont)
}

func (m *enableAutomaticRunningModifier[V, E]) apply(rc *opctx.Context) *opctx.Context {
	existing := opctx.Get(rc, AutomaticRunningKey)
	return opctx.With(rc, AutomaticRunningKey, runspec.And(existing, m.spec))
}
