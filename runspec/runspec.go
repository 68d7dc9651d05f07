// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package runspec implements run specifications: predicates-with-change-
// notification that drive automatic re-runs and "stale" decisions. They
// compose with the boolean operators And/Or/Not.
package runspec

import (
	"sync"

	"github.com/querykit/querykit/opctx"
)

// Spec is a predicate over the run context that can notify observers when
// its satisfaction may have changed.
type Spec interface {
	// IsSatisfied evaluates the predicate against ctx.
	IsSatisfied(ctx *opctx.Context) bool
	// OnChange registers fn to be invoked whenever the spec's
	// satisfaction may have changed, returning an unsubscribe function.
	OnChange(fn func()) (unsubscribe func())
}

// Always returns a Spec that is always satisfied to value and never
// changes.
func Always(value bool) Spec {
	return constSpec{value: value}
}

type constSpec struct{ value bool }

func (c constSpec) IsSatisfied(*opctx.Context) bool       { return c.value }
func (c constSpec) OnChange(func()) (unsubscribe func()) { return func() {} }

// Publisher is the external-collaborator interface a platform signal (e.g.
// network reachability, app-active state) must implement to drive
// Observing.
type Publisher interface {
	// Subscribe registers fn to be called with the publisher's current
	// value whenever it changes, returning an unsubscribe function.
	Subscribe(fn func(value bool)) (unsubscribe func())
}

// Observing returns a Spec whose satisfaction tracks a Publisher's latest
// published value, starting at initial until the first notification.
func Observing(publisher Publisher, initial bool) Spec {
	s := &observingSpec{value: initial}
	s.unsubFromPublisher = publisher.Subscribe(func(value bool) {
		s.mu.Lock()
		changed := s.value != value
		s.value = value
		listeners := append([]func(){}, s.listeners...)
		s.mu.Unlock()
		if changed {
			for _, l := range listeners {
				if l != nil {
					l()
				}
			}
		}
	})
	return s
}

type observingSpec struct {
	mu                  sync.Mutex
	value               bool
	listeners           []func()
	unsubFromPublisher  func()
}

func (s *observingSpec) IsSatisfied(*opctx.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *observingSpec) OnChange(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	idx := len(s.listeners)
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
		s.mu.Unlock()
	}
}

// And returns a Spec satisfied when both a and b are satisfied.
func And(a, b Spec) Spec { return combinator{a: a, b: b, op: andOp} }

// Or returns a Spec satisfied when either a or b is satisfied.
func Or(a, b Spec) Spec { return combinator{a: a, b: b, op: orOp} }

// Not returns a Spec satisfied exactly when a is not.
func Not(a Spec) Spec { return notCombinator{a: a} }

type boolOp int

const (
	andOp boolOp = iota
	orOp
)

type combinator struct {
	a, b Spec
	op   boolOp
}

func (c combinator) IsSatisfied(ctx *opctx.Context) bool {
	switch c.op {
	case andOp:
		return c.a.IsSatisfied(ctx) && c.b.IsSatisfied(ctx)
	default:
		return c.a.IsSatisfied(ctx) || c.b.IsSatisfied(ctx)
	}
}

func (c combinator) OnChange(fn func()) (unsubscribe func()) {
	unA := c.a.OnChange(fn)
	unB := c.b.OnChange(fn)
	return func() {
		unA()
		unB()
	}
}

type notCombinator struct{ a Spec }

func (c notCombinator) IsSatisfied(ctx *opctx.Context) bool { return !c.a.IsSatisfied(ctx) }
func (c notCombinator) OnChange(fn func()) (unsubscribe func()) {
	return c.a.OnChange(fn)
}
