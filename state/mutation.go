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
	qkerrors "github.com/querykit/querykit/pkg/errors"
	"github.com/querykit/querykit/task"
)

// HistoryEntry records one mutation invocation.
type HistoryEntry[A any, V any, E error] struct {
	ID            uuid.UUID
	Arguments     A
	StartedAt     time.Time
	CurrentResult *continuation.Result[V, E]
	LastUpdatedAt time.Time
	Status        OperationStatus[V, E]
	Task          *task.Task[V, E]
	Finished      bool
}

// MutationState is the state container for a mutation: a bounded,
// oldest-evicted-first history of invocations, plus a directly-set
// "yielded" slot for store-initiated writes outside of any invocation.
type MutationState[A any, V any, E error] struct {
	mu sync.Mutex

	initial *V

	yielded   *continuation.Result[V, E]
	yieldedAt time.Time

	history          []*HistoryEntry[A, V, E]
	maxHistoryLength int

	valueUpdateCount   uint64
	valueLastUpdatedAt time.Time

	errorUpdateCount   uint64
	errorLastUpdatedAt time.Time
}

// NewMutationState creates a MutationState. initial may be nil. Panics if
// maxHistoryLength is not positive, matching the MaxHistoryLength
// modifier's precondition.
func NewMutationState[A any, V any, E error](initial *V, maxHistoryLength int) *MutationState[A, V, E] {
	if maxHistoryLength <= 0 {
		panic(qkerrors.ErrInvalidMaxHistoryLength)
	}
	return &MutationState[A, V, E]{initial: initial, maxHistoryLength: maxHistoryLength}
}

// SetMaxHistoryLength clamps history to at most n entries going forward,
// evicting the oldest immediately if n is now smaller than the current
// history length. Returns ErrInvalidMaxHistoryLength if n <= 0.
func (s *MutationState[A, V, E]) SetMaxHistoryLength(n int) error {
	if n <= 0 {
		return qkerrors.ErrInvalidMaxHistoryLength
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxHistoryLength = n
	s.evictOldestLocked()
	return nil
}

func (s *MutationState[A, V, E]) evictOldestLocked() {
	for len(s.history) > s.maxHistoryLength {
		s.history = s.history[1:]
	}
}

// ScheduleFetchTask registers a new history entry for t, mutating with
// args.
func (s *MutationState[A, V, E]) ScheduleFetchTask(t *task.Task[V, E], args A) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := opctx.Get(t.Config().Context, duration.ClockKey).Now()
	s.history = append(s.history, &HistoryEntry[A, V, E]{
		ID:            t.ID(),
		Arguments:     args,
		StartedAt:     now,
		LastUpdatedAt: now,
		Status:        LoadingStatus[V, E](),
		Task:          t,
	})
	s.evictOldestLocked()
}

func (s *MutationState[A, V, E]) entryFor(id uuid.UUID) *HistoryEntry[A, V, E] {
	for _, e := range s.history {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// UpdateFromTask applies a result yielded or returned by t to its history
// entry.
func (s *MutationState[A, V, E]) UpdateFromTask(t *task.Task[V, E], result continuation.Result[V, E], rc *opctx.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := opctx.Get(rc, duration.ClockKey).Now()
	entry := s.entryFor(t.ID())
	if entry != nil {
		r := result
		entry.CurrentResult = &r
		entry.LastUpdatedAt = now
		if result.Ok {
			entry.Status = OkStatus[V, E](result.Value)
		} else {
			entry.Status = ErrStatus[V, E](result.Err)
		}
	}
	s.recordCounts(result, now)
}

// SetResult is a direct, store-initiated write into the yielded slot,
// outside of any invocation's history.
func (s *MutationState[A, V, E]) SetResult(result continuation.Result[V, E], rc *opctx.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := opctx.Get(rc, duration.ClockKey).Now()
	r := result
	s.yielded = &r
	s.yieldedAt = now
	s.recordCounts(result, now)
}

func (s *MutationState[A, V, E]) recordCounts(result continuation.Result[V, E], now time.Time) {
	if result.Ok {
		s.valueUpdateCount++
		s.valueLastUpdatedAt = now
	} else {
		s.errorUpdateCount++
		s.errorLastUpdatedAt = now
	}
}

// FinishFetchTask marks t's history entry finished, leaving its final
// result and status in place.
func (s *MutationState[A, V, E]) FinishFetchTask(t *task.Task[V, E]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry := s.entryFor(t.ID()); entry != nil {
		entry.Finished = true
	}
}

type latestResult[V any, E error] struct {
	result continuation.Result[V, E]
	at     time.Time
	has    bool
}

// latest implements "current/error derive from the more recent of (last
// history entry, yielded)".
func (s *MutationState[A, V, E]) latest() latestResult[V, E] {
	var out latestResult[V, E]
	if n := len(s.history); n > 0 {
		last := s.history[n-1]
		if last.CurrentResult != nil {
			out = latestResult[V, E]{result: *last.CurrentResult, at: last.LastUpdatedAt, has: true}
		}
	}
	if s.yielded != nil && (!out.has || s.yieldedAt.After(out.at)) {
		out = latestResult[V, E]{result: *s.yielded, at: s.yieldedAt, has: true}
	}
	return out
}

// Current returns the current value, if any, falling back to the initial
// value when no invocation or direct write has produced one.
func (s *MutationState[A, V, E]) Current() (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.latest(); r.has && r.result.Ok {
		return r.result.Value, true
	}
	if s.initial != nil {
		return *s.initial, true
	}
	var zero V
	return zero, false
}

// Error returns the most recent error, if any.
func (s *MutationState[A, V, E]) Error() (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.latest(); r.has && !r.result.Ok {
		return r.result.Err, true
	}
	var zero E
	return zero, false
}

// History returns a snapshot copy of the mutation history, oldest first.
func (s *MutationState[A, V, E]) History() []HistoryEntry[A, V, E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry[A, V, E], len(s.history))
	for i, e := range s.history {
		out[i] = *e
	}
	return out
}

// LatestHistoryEntry returns the most recent history entry, if any, for
// retry_latest.
func (s *MutationState[A, V, E]) LatestHistoryEntry() (HistoryEntry[A, V, E], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return HistoryEntry[A, V, E]{}, false
	}
	return *s.history[len(s.history)-1], true
}

// IsLoading reports whether any history entry has not yet finished.
func (s *MutationState[A, V, E]) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.history {
		if !e.Finished {
			return true
		}
	}
	return false
}

// Status derives the observable status of the mutation.
func (s *MutationState[A, V, E]) Status() OperationStatus[V, E] {
	s.mu.Lock()
	defer s.mu.Unlock()

	isLoading := false
	for _, e := range s.history {
		if !e.Finished {
			isLoading = true
			break
		}
	}

	var current V
	var err E
	if r := s.latest(); r.has {
		if r.result.Ok {
			current = r.result.Value
		} else {
			err = r.result.Err
		}
	} else if s.initial != nil {
		current = *s.initial
	}

	return deriveStatus[V, E](isLoading, s.valueUpdateCount, s.errorUpdateCount, s.valueLastUpdatedAt, s.errorLastUpdatedAt, current, err)
}

// Reset clears history and the yielded slot, restoring the initial value,
// and returns every unfinished invocation's task for the store to cancel.
func (s *MutationState[A, V, E]) Reset(rc *opctx.Context) ResetEffect {
	s.mu.Lock()
	defer s.mu.Unlock()

	var effect ResetEffect
	for _, e := range s.history {
		if !e.Finished && e.Task != nil {
			effect.TasksToCancel = append(effect.TasksToCancel, e.Task)
		}
	}

	s.history = nil
	s.yielded = nil
	s.yieldedAt = time.Time{}
	s.valueUpdateCount = 0
	s.errorUpdateCount = 0
	s.valueLastUpdatedAt = time.Time{}
	s.errorLastUpdatedAt = time.Time{}

	return effect
}
