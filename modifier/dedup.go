// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"
	"sync"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
)

// Predicate decides whether two runs' contexts belong to the same
// deduplication equivalence class.
type Predicate[V any, E error] func(a, b *opctx.Context) bool

// PagingPredicate is the default Deduplicated predicate for paginated
// requests: two runs are equivalent when they request the same paging
// variant and (for NextPage/PreviousPage) the same page id.
func PagingPredicate[V any, E error]() Predicate[V, E] {
	return func(a, b *opctx.Context) bool {
		pa := opctx.Get(a, request.PagingKey)
		pb := opctx.Get(b, request.PagingKey)
		return pa.Kind == pb.Kind && pa.PageID == pb.PageID
	}
}

type dedupEntry[V any, E error] struct {
	waiterCount int
	result      *continuation.Result[V, E]
	done        chan struct{}
	cancel      context.CancelFunc
}

type dedupActive[V any, E error] struct {
	id  uint64
	ctx *opctx.Context
}

// dedupState is the per-modifier async-exclusive store backing Deduplicated:
// next_id, active, and entries from the deduplication algorithm.
type dedupState[V any, E error] struct {
	mu      sync.Mutex
	nextID  uint64
	active  []dedupActive[V, E]
	entries map[uint64]*dedupEntry[V, E]
}

type deduplicatedModifier[V any, E error] struct {
	pred  Predicate[V, E]
	state *dedupState[V, E]
}

// Deduplicated ensures at most one concurrent execution of the base exists
// per equivalence class defined by pred; later callers attach as waiters to
// the first execution and receive its result.
func Deduplicated[V any, E error](pred Predicate[V, E]) Modifier[V, E] {
	return &deduplicatedModifier[V, E]{
		pred:  pred,
		state: &dedupState[V, E]{entries: make(map[uint64]*dedupEntry[V, E])},
	}
}

func (m *deduplicatedModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(rc)
}

func (m *deduplicatedModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	s := m.state

	s.mu.Lock()
	for _, a := range s.active {
		if m.pred(a.ctx, rc) {
			id := a.id
			s.entries[id].waiterCount++
			s.mu.Unlock()
			return m.wait(ctx, id)
		}
	}

	id := s.nextID
	s.nextID++
	execCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	entry := &dedupEntry[V, E]{waiterCount: 1, done: done, cancel: cancel}
	s.entries[id] = entry
	s.active = append(s.active, dedupActive[V, E]{id: id, ctx: rc})
	s.mu.Unlock()

	go func() {
		result := base.Run(execCtx, rc, cont)

		s.mu.Lock()
		for i, a := range s.active {
			if a.id == id {
				s.active = append(s.active[:i], s.active[i+1:]...)
				break
			}
		}
		entry.result = &result
		s.mu.Unlock()
		close(done)
	}()

	return m.wait(ctx, id)
}

// wait implements the on-wait/on-resume bookkeeping: if the result is
// already present, return it; otherwise suspend until completion or the
// caller's own cancellation. Either way, decrement waiter_count exactly
// once and remove the entry once the last waiter has claimed it.
func (m *deduplicatedModifier[V, E]) wait(ctx context.Context, id uint64) continuation.Result[V, E] {
	s := m.state

	s.mu.Lock()
	entry, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		var zero continuation.Result[V, E]
		return zero
	}
	if entry.result != nil {
		r := *entry.result
		s.decrementLocked(id)
		s.mu.Unlock()
		return r
	}
	done := entry.done
	s.mu.Unlock()

	select {
	case <-done:
		s.mu.Lock()
		r := *entry.result
		s.decrementLocked(id)
		s.mu.Unlock()
		return r
	case <-ctx.Done():
		s.mu.Lock()
		entry.waiterCount--
		lastWaiter := entry.waiterCount <= 0 && entry.result == nil
		if lastWaiter {
			entry.cancel()
		}
		s.mu.Unlock()

		if !lastWaiter {
			// The run continues for remaining waiters; this caller's own
			// task is expected to observe its cancellation independently
			// (via task.Task.IsCancelled), so no Failure value is
			// fabricated here.
			var zero continuation.Result[V, E]
			return zero
		}

		<-done
		s.mu.Lock()
		r := *entry.result
		if entry.waiterCount <= 0 {
			delete(s.entries, id)
		}
		s.mu.Unlock()
		return r
	}
}

func (s *dedupState[V, E]) decrementLocked(id uint64) {
	entry, ok := s.entries[id]
	if !ok {
		return
	}
	entry.waiterCount--
	if entry.waiterCount <= 0 {
		delete(s.entries, id)
	}
}
