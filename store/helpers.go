// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/task"
)

// firstNonNil returns rc if non-nil, otherwise fallback. Used wherever a
// yielded/override context may be absent and the store's own default
// context should be observed instead.
func firstNonNil(rc, fallback *opctx.Context) *opctx.Context {
	if rc != nil {
		return rc
	}
	return fallback
}

// namedConfig builds a task.Config defaulting Name to def when rc carries
// no override, per "each variant's helper sets context.task_config.name to
// a descriptive string if unset".
func namedConfig(rc *opctx.Context, def string) task.Config {
	name := opctx.Get(rc, task.NameKey)
	if name == "" {
		name = def
	}
	return task.Config{Name: name, Context: rc}
}

// Future is returned by RunTask: a run already in progress on its own
// goroutine, observable without blocking the caller.
type Future[V any, E error] struct {
	done   chan struct{}
	result continuation.Result[V, E]
}

func newFuture[V any, E error](run func() continuation.Result[V, E]) *Future[V, E] {
	f := &Future[V, E]{done: make(chan struct{})}
	go func() {
		f.result = run()
		close(f.done)
	}()
	return f
}

// Done returns a channel closed once the run has finished.
func (f *Future[V, E]) Done() <-chan struct{} { return f.done }

// Wait blocks until the run finishes and returns its terminal result.
func (f *Future[V, E]) Wait() continuation.Result[V, E] {
	<-f.done
	return f.result
}
