// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"context"
	"sync"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/modifier"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
	qkerrors "github.com/querykit/querykit/pkg/errors"
	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/state"
	"github.com/querykit/querykit/subscription"
	"github.com/querykit/querykit/task"
)

// MutationState's constructor panics on a non-positive history length, so
// the store defaults to a generous bound a host can narrow via
// MaxHistoryLength.
const defaultMaxHistoryLength = 100

// MutationStore is the per-operation runtime for an argument-in, value-out
// mutation with history tracking.
type MutationStore[A any, V any, E error] struct {
	path opath.Path
	req  request.Request[V, E]
	rc   *opctx.Context

	mu    sync.Mutex
	state *state.MutationState[A, V, E]
	subs  *subscribers[V, E]

	closed         bool
	controllerSubs []*subscription.Subscription
}

// NewMutation constructs a MutationStore for m.
func NewMutation[A any, V any, E error](m request.Mutation[A, V, E], initial *V, defaultCtx *opctx.Context) *MutationStore[A, V, E] {
	req := request.AsMutationRequest[A, V, E](m)
	rc := req.Setup(defaultCtx)

	maxLen := opctx.Get(rc, modifier.MaxHistoryLengthKey)
	if maxLen <= 0 {
		maxLen = defaultMaxHistoryLength
	}

	s := &MutationStore[A, V, E]{
		path:  req.Path(),
		req:   req,
		rc:    rc,
		state: state.NewMutationState[A, V, E](initial, maxLen),
		subs:  newSubscribers[V, E](),
	}
	s.wireControllers()
	return s
}

func (s *MutationStore[A, V, E]) wireControllers() {
	for _, c := range modifier.ControllersFrom[V, E](s.rc) {
		s.controllerSubs = append(s.controllerSubs, c.Control(s))
	}
}

// Path identifies this store.
func (s *MutationStore[A, V, E]) Path() opath.Path { return s.path }

// Context returns the store's default context, after Setup.
func (s *MutationStore[A, V, E]) Context() *opctx.Context { return s.rc }

// SubscriberCount returns the number of currently registered subscribers.
func (s *MutationStore[A, V, E]) SubscriberCount() int { return s.subs.count() }

// State returns the store's derived observable status.
func (s *MutationStore[A, V, E]) State() state.OperationStatus[V, E] { return s.state.Status() }

// CurrentValue returns the store's current value, if any, falling back to a
// value installed by modifier.DefaultValue when the state has none.
func (s *MutationStore[A, V, E]) CurrentValue() (V, bool) {
	if v, ok := s.state.Current(); ok {
		return v, true
	}
	return modifier.DefaultValueFrom[V](s.rc)
}

// History returns a snapshot of the mutation history, oldest first.
func (s *MutationStore[A, V, E]) History() []state.HistoryEntry[A, V, E] { return s.state.History() }

// IsLoading reports whether any history entry is still in flight.
func (s *MutationStore[A, V, E]) IsLoading() bool { return s.state.IsLoading() }

// WithExclusiveAccess runs fn under the store's serialization discipline.
func (s *MutationStore[A, V, E]) WithExclusiveAccess(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *MutationStore[A, V, E]) publishChange() {
	s.subs.dispatch(Event[V, E]{Kind: StateChanged, Status: s.state.Status()})
}

// Mutate runs the mutation against args, tracking a new history entry.
func (s *MutationStore[A, V, E]) Mutate(ctx context.Context, args A) continuation.Result[V, E] {
	return s.runWithArgs(ctx, args, nil)
}

// MutateWithHandler is Mutate with an additional per-call event handler.
func (s *MutationStore[A, V, E]) MutateWithHandler(ctx context.Context, args A, handler *modifier.EventHandler[V, E]) continuation.Result[V, E] {
	return s.runWithArgs(ctx, args, handler)
}

func (s *MutationStore[A, V, E]) runWithArgs(ctx context.Context, args A, handler *modifier.EventHandler[V, E]) continuation.Result[V, E] {
	rc := request.WithArguments(s.rc, args)

	req := s.req
	if handler != nil {
		req = modifier.Wrap(req, modifier.HandleEvents[V, E](*handler))
	}

	t := task.New[V, E](ctx, namedConfig(rc, "mutation.mutate"))

	s.WithExclusiveAccess(func() { s.state.ScheduleFetchTask(t, args) })
	s.publishChange()

	cont := continuation.New(func(res continuation.Result[V, E], yctx *opctx.Context) {
		s.WithExclusiveAccess(func() { s.state.UpdateFromTask(t, res, firstNonNil(yctx, rc)) })
		s.publishChange()
	})

	result := t.Run(func(taskCtx context.Context) continuation.Result[V, E] {
		return req.Run(taskCtx, rc, cont)
	})

	s.WithExclusiveAccess(func() {
		s.state.UpdateFromTask(t, result, rc)
		s.state.FinishFetchTask(t)
	})
	s.publishChange()

	return result
}

// RetryLatest reruns the most recent history entry's arguments. It returns
// ErrMutateNoHistory if the store has no history yet; the store itself logs
// no warning in that case, the error is the only signal.
func (s *MutationStore[A, V, E]) RetryLatest(ctx context.Context) (continuation.Result[V, E], error) {
	entry, ok := s.state.LatestHistoryEntry()
	if !ok {
		var zero continuation.Result[V, E]
		return zero, qkerrors.ErrMutateNoHistory
	}
	return s.runWithArgs(ctx, entry.Arguments, nil), nil
}

// ResetState clears history and the yielded slot, restoring the initial
// value, and cancels every unfinished invocation.
func (s *MutationStore[A, V, E]) ResetState(ctxOverride *opctx.Context) {
	var effect state.ResetEffect
	s.WithExclusiveAccess(func() { effect = s.state.Reset(firstNonNil(ctxOverride, s.rc)) })
	for _, c := range effect.TasksToCancel {
		c.Cancel()
	}
	s.publishChange()
}

// SetResult is a direct, store-initiated write into the yielded slot,
// outside of any invocation's history.
func (s *MutationStore[A, V, E]) SetResult(result continuation.Result[V, E], ctxOverride *opctx.Context) {
	s.WithExclusiveAccess(func() { s.state.SetResult(result, firstNonNil(ctxOverride, s.rc)) })
	s.publishChange()
}

// SetMaxHistoryLength clamps history to at most n entries going forward.
func (s *MutationStore[A, V, E]) SetMaxHistoryLength(n int) error {
	return s.state.SetMaxHistoryLength(n)
}

// Subscribe registers h. Mutations have no automatic-run trigger: a
// mutation only ever runs because Mutate or RetryLatest was called.
func (s *MutationStore[A, V, E]) Subscribe(h Handler[V, E]) *subscription.Subscription {
	id := s.subs.add(h)
	return subscription.New(func() { s.subs.remove(id) })
}

// Close cancels every unfinished invocation and unsubscribes controllers.
func (s *MutationStore[A, V, E]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	effect := s.state.Reset(s.rc)
	for _, c := range effect.TasksToCancel {
		c.Cancel()
	}
	for _, sub := range s.controllerSubs {
		sub.Cancel()
	}
}

// Yield implements controller.Controls.
func (s *MutationStore[A, V, E]) Yield(value V, rc *opctx.Context) {
	s.SetResult(continuation.OkResult[V, E](value), rc)
}

// YieldError implements controller.Controls.
func (s *MutationStore[A, V, E]) YieldError(err E, rc *opctx.Context) {
	s.SetResult(continuation.ErrResult[V, E](err), rc)
}

// YieldResult implements controller.Controls.
func (s *MutationStore[A, V, E]) YieldResult(result continuation.Result[V, E], rc *opctx.Context) {
	s.SetResult(result, rc)
}

// YieldRefetch implements controller.Controls: a mutation has no implicit
// arguments to rerun with, so this always reports false.
func (s *MutationStore[A, V, E]) YieldRefetch(*opctx.Context) (continuation.Result[V, E], bool) {
	var zero continuation.Result[V, E]
	return zero, false
}

// CanYieldRefetch implements controller.Controls.
func (s *MutationStore[A, V, E]) CanYieldRefetch() bool { return false }
