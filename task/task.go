// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package task implements Task: a cancellable, cooperative, schedulable
// unit of execution carrying an identity, a small configuration, and
// optional ordering dependencies on other tasks.
package task

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
)

// State is the lifecycle state of a Task.
type State int

const (
	// NotRun means the task has been created but its body has not started.
	NotRun State = iota
	// Running means the task's body is currently executing (including
	// while it awaits its dependencies).
	Running
	// Finished means the task's body has returned (successfully, with an
	// error, or because the task was cancelled).
	Finished
)

// NameKey carries a caller-chosen task name through a run's context. A
// store consults this before falling back to its own per-variant default
// name (e.g. "query.fetch") when building a task's Config.
var NameKey = opctx.NewKey[string]("task_config.name", "")

// Config is a task's identity-adjacent configuration.
type Config struct {
	// Name is an optional human-readable name, defaulted by the store per
	// operation variant if left empty.
	Name string
	// Context is the per-run opctx.Context the task's body observes.
	Context *opctx.Context
}

// Awaitable is the minimal surface a task dependency must expose: a channel
// closed once the dependency has finished, for any reason.
type Awaitable interface {
	Done() <-chan struct{}
}

// Task is a cancellable unit of execution with ordering dependencies on
// other tasks.
type Task[V any, E error] struct {
	id     uuid.UUID
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	deps   []Awaitable

	mu     sync.Mutex
	state  State
	result continuation.Result[V, E]
	done   chan struct{}
}

// New creates a Task deriving its cancellation from parent, with the given
// configuration and prerequisite dependencies. The task does not start
// running until Run is called.
func New[V any, E error](parent context.Context, config Config, deps ...Awaitable) *Task[V, E] {
	ctx, cancel := context.WithCancel(parent)
	return &Task[V, E]{
		id:     uuid.New(),
		config: config,
		ctx:    ctx,
		cancel: cancel,
		deps:   deps,
		state:  NotRun,
		done:   make(chan struct{}),
	}
}

// ID returns the task's unique identity.
func (t *Task[V, E]) ID() uuid.UUID { return t.id }

// Config returns the task's configuration.
func (t *Task[V, E]) Config() Config { return t.config }

// Context returns the context the task's body should observe; it is
// cancelled when Cancel is called or the parent is cancelled.
func (t *Task[V, E]) Context() context.Context { return t.ctx }

// State returns the task's current lifecycle state.
func (t *Task[V, E]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the task's terminal result. Only meaningful once State
// returns Finished.
func (t *Task[V, E]) Result() continuation.Result[V, E] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Done returns a channel closed once the task has finished.
func (t *Task[V, E]) Done() <-chan struct{} { return t.done }

// Cancel requests cooperative cancellation of the task. Idempotent.
func (t *Task[V, E]) Cancel() { t.cancel() }

// IsCancelled reports whether the task's context has been cancelled.
func (t *Task[V, E]) IsCancelled() bool { return t.ctx.Err() != nil }

// Run awaits every prerequisite dependency (or the task's own
// cancellation, whichever comes first — a cancelled prerequisite does not
// cancel this task, it is simply treated as complete) and then invokes
// body with the task's context, recording and returning its result.
func (t *Task[V, E]) Run(body func(ctx context.Context) continuation.Result[V, E]) continuation.Result[V, E] {
	t.setState(Running)

	for _, dep := range t.deps {
		select {
		case <-dep.Done():
		case <-t.ctx.Done():
		}
	}

	result := body(t.ctx)
	t.finish(result)
	return result
}

func (t *Task[V, E]) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Task[V, E]) finish(result continuation.Result[V, E]) {
	t.mu.Lock()
	if t.state == Finished {
		t.mu.Unlock()
		return
	}
	t.state = Finished
	t.result = result
	t.mu.Unlock()
	close(t.done)
}
