// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/duration"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/task"
)

// QueryState is the state container for a one-shot fetch: a current value,
// its most recent error, and the set of tasks currently fetching it.
type QueryState[V any, E error] struct {
	mu sync.Mutex

	current *V
	initial *V

	valueUpdateCount   uint64
	valueLastUpdatedAt time.Time

	err                *E
	errorUpdateCount   uint64
	errorLastUpdatedAt time.Time

	activeTasks map[uuid.UUID]*task.Task[V, E]
}

// NewQueryState creates a QueryState. initial may be nil for "no default
// value".
func NewQueryState[V any, E error](initial *V) *QueryState[V, E] {
	return &QueryState[V, E]{
		current:     initial,
		initial:     initial,
		activeTasks: make(map[uuid.UUID]*task.Task[V, E]),
	}
}

// ScheduleFetchTask registers t as active. Never blocks.
func (s *QueryState[V, E]) ScheduleFetchTask(t *task.Task[V, E]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTasks[t.ID()] = t
}

// FinishFetchTask removes t from the active set.
func (s *QueryState[V, E]) FinishFetchTask(t *task.Task[V, E]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeTasks, t.ID())
}

// SetResult is a direct, store-initiated write: not associated with any
// particular task.
func (s *QueryState[V, E]) SetResult(result continuation.Result[V, E], rc *opctx.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyResult(result, rc)
}

// UpdateFromTask applies a result yielded or returned by t. Query state has
// no additional bookkeeping beyond the direct write.
func (s *QueryState[V, E]) UpdateFromTask(t *task.Task[V, E], result continuation.Result[V, E], rc *opctx.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyResult(result, rc)
}

func (s *QueryState[V, E]) applyResult(result continuation.Result[V, E], rc *opctx.Context) {
	now := opctx.Get(rc, duration.ClockKey).Now()
	if result.Ok {
		v := result.Value
		s.current = &v
		s.valueUpdateCount++
		s.valueLastUpdatedAt = now
		s.err = nil
	} else {
		e := result.Err
		s.err = &e
		s.errorUpdateCount++
		s.errorLastUpdatedAt = now
	}
}

// IsLoading reports whether any task is currently active.
func (s *QueryState[V, E]) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeTasks) > 0
}

// Current returns the current value, if any.
func (s *QueryState[V, E]) Current() (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		var zero V
		return zero, false
	}
	return *s.current, true
}

// Error returns the most recent error, if any.
func (s *QueryState[V, E]) Error() (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		var zero E
		return zero, false
	}
	return *s.err, true
}

// Status derives the observable status of the query.
func (s *QueryState[V, E]) Status() OperationStatus[V, E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current V
	if s.current != nil {
		current = *s.current
	}
	var err E
	if s.err != nil {
		err = *s.err
	}
	return deriveStatus[V, E](len(s.activeTasks) > 0, s.valueUpdateCount, s.errorUpdateCount, s.valueLastUpdatedAt, s.errorLastUpdatedAt, current, err)
}

// Reset restores initial values and returns every active task for the
// store to cancel. The state never cancels a task itself.
func (s *QueryState[V, E]) Reset(rc *opctx.Context) ResetEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	effect := ResetEffect{TasksToCancel: make([]Cancellable, 0, len(s.activeTasks))}
	for _, t := range s.activeTasks {
		effect.TasksToCancel = append(effect.TasksToCancel, t)
	}
	s.activeTasks = make(map[uuid.UUID]*task.Task[V, E])

	s.current = s.initial
	s.err = nil
	s.valueUpdateCount = 0
	s.errorUpdateCount = 0
	s.valueLastUpdatedAt = time.Time{}
	s.errorLastUpdatedAt = time.Time{}

	return effect
}
