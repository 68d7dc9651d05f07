// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package store implements the per-operation runtime: it coordinates
// tasks, drives a request's state machine, dispatches change events to
// subscribers, enforces deduplication and staleness (via the modifiers
// composed into its request), and services run/reset/set-value requests.
//
// A store owns exactly one state container. Three concrete store types
// exist, one per request specialization: QueryStore, PaginatedStore, and
// MutationStore. All three share the subscriber/event bookkeeping in this
// file and the task-naming/context helpers in helpers.go.
package store

import (
	"sync"

	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/state"
)

// EventKind distinguishes why a subscriber was notified. Today there is
// only one kind of change a store publishes; the type exists so a future
// addition (e.g. a dedicated "page appended" event) does not change every
// subscriber's signature.
type EventKind int

// StateChanged is published whenever a store's observable status may have
// changed: on schedule, on every intermediate yield, on a terminal result,
// on reset, and on a direct SetResult.
const StateChanged EventKind = 0

// Event is what a subscriber observes.
type Event[V any, E error] struct {
	Kind   EventKind
	Status state.OperationStatus[V, E]
}

// Handler receives every Event a store publishes. A handler registered via
// Subscribe must not block or call back into the same store synchronously;
// the store does not hold its internal lock while dispatching, but a
// handler that re-enters Run/ResetState/SetResult from within itself can
// still deadlock against its own call stack.
type Handler[V any, E error] func(Event[V, E])

// subscribers is the shared subscriber registry every store type embeds.
type subscribers[V any, E error] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]Handler[V, E]
}

func newSubscribers[V any, E error]() *subscribers[V, E] {
	return &subscribers[V, E]{handlers: make(map[uint64]Handler[V, E])}
}

func (s *subscribers[V, E]) add(h Handler[V, E]) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	return id
}

func (s *subscribers[V, E]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, id)
}

func (s *subscribers[V, E]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

func (s *subscribers[V, E]) snapshot() []Handler[V, E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handler[V, E], 0, len(s.handlers))
	for _, h := range s.handlers {
		out = append(out, h)
	}
	return out
}

func (s *subscribers[V, E]) dispatch(ev Event[V, E]) {
	for _, h := range s.snapshot() {
		h(ev)
	}
}

// AnyStore is the type-erased surface a client's keyed pool needs: enough
// to support prefix-match collection accessors and eviction without
// knowing a store's Value/Failure types.
type AnyStore interface {
	// Path identifies the store.
	Path() opath.Path
	// SubscriberCount returns the number of currently registered
	// subscribers.
	SubscriberCount() int
	// IsLoading reports whether the store has any active task.
	IsLoading() bool
	// Close cancels every active task and unsubscribes the store's
	// rerun-on-change specs and controllers. Called on eviction.
	Close()
}
