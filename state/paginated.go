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
	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/task"
)

// PaginatedState is the state container for a paginated fetch: an ordered,
// unique-by-id sequence of pages, the forward/backward cursors, and four
// independently tracked active-task sets (initial, next, previous, all).
type PaginatedState[PID comparable, PV any, E error] struct {
	mu sync.Mutex

	current []request.Page[PID, PV]
	initial []request.Page[PID, PV]

	nextPageID     *PID
	previousPageID *PID

	valueUpdateCount   uint64
	valueLastUpdatedAt time.Time

	err                *E
	errorUpdateCount   uint64
	errorLastUpdatedAt time.Time

	activeByKind map[request.PagingRequestKind]map[uuid.UUID]*task.Task[request.PaginatedResult[PID, PV], E]
}

// NewPaginatedState creates a PaginatedState. initial may be nil for "no
// pages yet".
func NewPaginatedState[PID comparable, PV any, E error](initial []request.Page[PID, PV]) *PaginatedState[PID, PV, E] {
	return &PaginatedState[PID, PV, E]{
		current: initial,
		initial: initial,
		activeByKind: map[request.PagingRequestKind]map[uuid.UUID]*task.Task[request.PaginatedResult[PID, PV], E]{
			request.InitialPage:  make(map[uuid.UUID]*task.Task[request.PaginatedResult[PID, PV], E]),
			request.NextPage:     make(map[uuid.UUID]*task.Task[request.PaginatedResult[PID, PV], E]),
			request.PreviousPage: make(map[uuid.UUID]*task.Task[request.PaginatedResult[PID, PV], E]),
			request.AllPages:     make(map[uuid.UUID]*task.Task[request.PaginatedResult[PID, PV], E]),
		},
	}
}

func (s *PaginatedState[PID, PV, E]) kindOf(t *task.Task[request.PaginatedResult[PID, PV], E]) request.PagingRequestKind {
	return opctx.Get(t.Config().Context, request.PagingKey).Kind
}

// PendingDependencies returns the tasks a new task of the given kind must
// wait for before running, per the paginated scheduling rules: AllPages
// waits for every active initial/next/previous task; NextPage and
// PreviousPage wait for active initial and all-pages tasks (but not each
// other); InitialPage has no dependencies.
func (s *PaginatedState[PID, PV, E]) PendingDependencies(kind request.PagingRequestKind) []task.Awaitable {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deps []task.Awaitable
	add := func(k request.PagingRequestKind) {
		for _, t := range s.activeByKind[k] {
			deps = append(deps, t)
		}
	}
	switch kind {
	case request.InitialPage:
		return nil
	case request.AllPages:
		add(request.InitialPage)
		add(request.NextPage)
		add(request.PreviousPage)
	case request.NextPage, request.PreviousPage:
		add(request.InitialPage)
		add(request.AllPages)
	}
	return deps
}

// ScheduleFetchTask registers t as active under its paging kind.
func (s *PaginatedState[PID, PV, E]) ScheduleFetchTask(t *task.Task[request.PaginatedResult[PID, PV], E]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeByKind[s.kindOf(t)][t.ID()] = t
}

// FinishFetchTask removes t from its active set.
func (s *PaginatedState[PID, PV, E]) FinishFetchTask(t *task.Task[request.PaginatedResult[PID, PV], E]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeByKind[s.kindOf(t)], t.ID())
}

// UpdateFromTask applies a result yielded or returned by t: the page list is
// always replaced outright (the orchestration in the request package always
// produces the full accumulated list, not a delta). An intermediate yield
// updates only the cursors it carries (it may not have computed them yet);
// the terminal result of a finished task sets both cursors outright, so an
// absent next or previous page id clears the stored one.
func (s *PaginatedState[PID, PV, E]) UpdateFromTask(t *task.Task[request.PaginatedResult[PID, PV], E], result continuation.Result[request.PaginatedResult[PID, PV], E], rc *opctx.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyResult(result, rc)
	if result.Ok && t.State() == task.Finished {
		s.nextPageID = result.Value.NextPageID
		s.previousPageID = result.Value.PreviousPageID
	}
}

// SetResult is a direct, store-initiated write.
func (s *PaginatedState[PID, PV, E]) SetResult(result continuation.Result[request.PaginatedResult[PID, PV], E], rc *opctx.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyResult(result, rc)
}

func (s *PaginatedState[PID, PV, E]) applyResult(result continuation.Result[request.PaginatedResult[PID, PV], E], rc *opctx.Context) {
	now := opctx.Get(rc, duration.ClockKey).Now()
	if result.Ok {
		s.current = result.Value.Pages
		if result.Value.NextPageID != nil {
			s.nextPageID = result.Value.NextPageID
		}
		if result.Value.PreviousPageID != nil {
			s.previousPageID = result.Value.PreviousPageID
		}
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

// IsLoading reports whether any task, of any kind, is currently active.
func (s *PaginatedState[PID, PV, E]) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked() > 0
}

func (s *PaginatedState[PID, PV, E]) activeCountLocked() int {
	n := 0
	for _, m := range s.activeByKind {
		n += len(m)
	}
	return n
}

// Current returns a copy of the currently held pages.
func (s *PaginatedState[PID, PV, E]) Current() []request.Page[PID, PV] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]request.Page[PID, PV]{}, s.current...)
}

// Error returns the most recent error, if any.
func (s *PaginatedState[PID, PV, E]) Error() (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		var zero E
		return zero, false
	}
	return *s.err, true
}

// HasNext reports whether a next page is known to exist: true whenever no
// pages are held yet (nothing has ruled it out), or the next cursor is set.
func (s *PaginatedState[PID, PV, E]) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current) == 0 || s.nextPageID != nil
}

// HasPrevious is the symmetric counterpart of HasNext.
func (s *PaginatedState[PID, PV, E]) HasPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current) == 0 || s.previousPageID != nil
}

// NextPageID returns the forward cursor, if known.
func (s *PaginatedState[PID, PV, E]) NextPageID() (PID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextPageID == nil {
		var zero PID
		return zero, false
	}
	return *s.nextPageID, true
}

// PreviousPageID returns the backward cursor, if known.
func (s *PaginatedState[PID, PV, E]) PreviousPageID() (PID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previousPageID == nil {
		var zero PID
		return zero, false
	}
	return *s.previousPageID, true
}

// Status derives the observable status of the paginated fetch.
func (s *PaginatedState[PID, PV, E]) Status() OperationStatus[[]request.Page[PID, PV], E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := append([]request.Page[PID, PV]{}, s.current...)
	var err E
	if s.err != nil {
		err = *s.err
	}
	return deriveStatus[[]request.Page[PID, PV], E](s.activeCountLocked() > 0, s.valueUpdateCount, s.errorUpdateCount, s.valueLastUpdatedAt, s.errorLastUpdatedAt, current, err)
}

// Reset restores initial values and returns every active task, of every
// kind, for the store to cancel.
func (s *PaginatedState[PID, PV, E]) Reset(rc *opctx.Context) ResetEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	effect := ResetEffect{TasksToCancel: make([]Cancellable, 0, s.activeCountLocked())}
	for kind, m := range s.activeByKind {
		for _, t := range m {
			effect.TasksToCancel = append(effect.TasksToCancel, t)
		}
		s.activeByKind[kind] = make(map[uuid.UUID]*task.Task[request.PaginatedResult[PID, PV], E])
	}

	s.current = s.initial
	s.nextPageID = nil
	s.previousPageID = nil
	s.err = nil
	s.valueUpdateCount = 0
	s.errorUpdateCount = 0
	s.valueLastUpdatedAt = time.Time{}
	s.errorLastUpdatedAt = time.Time{}

	return effect
}
