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
	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/state"
	"github.com/querykit/querykit/subscription"
	"github.com/querykit/querykit/task"
)

// QueryStore is the per-operation runtime for a one-shot fetch.
type QueryStore[V any, E error] struct {
	path opath.Path
	req  request.Request[V, E]
	rc   *opctx.Context

	mu    sync.Mutex
	state *state.QueryState[V, E]
	subs  *subscribers[V, E]

	closed         bool
	autoRunCancel  context.CancelFunc
	rerunUnsub     []func()
	controllerSubs []*subscription.Subscription
}

// NewQuery constructs a QueryStore for req, calling req.Setup(defaultCtx)
// exactly once, wiring any RerunOnChange specs and Controllers the
// modifier stack registered, and seeding the state container with
// initial (nil for "no default value").
func NewQuery[V any, E error](req request.Request[V, E], initial *V, defaultCtx *opctx.Context) *QueryStore[V, E] {
	s := &QueryStore[V, E]{
		path:  req.Path(),
		req:   req,
		state: state.NewQueryState[V, E](initial),
		subs:  newSubscribers[V, E](),
	}
	s.rc = req.Setup(defaultCtx)
	s.wireRerunOnChange()
	s.wireControllers()
	return s
}

func (s *QueryStore[V, E]) wireRerunOnChange() {
	for _, spec := range opctx.Get(s.rc, modifier.RerunOnChangeKey) {
		spec := spec
		unsub := spec.OnChange(func() {
			if spec.IsSatisfied(s.rc) && s.AutomaticRunningEnabled() {
				s.startAutomaticRun()
			}
		})
		s.rerunUnsub = append(s.rerunUnsub, unsub)
	}
}

func (s *QueryStore[V, E]) wireControllers() {
	for _, c := range modifier.ControllersFrom[V, E](s.rc) {
		s.controllerSubs = append(s.controllerSubs, c.Control(s))
	}
}

// Path identifies this store.
func (s *QueryStore[V, E]) Path() opath.Path { return s.path }

// Context returns the store's default context, after Setup.
func (s *QueryStore[V, E]) Context() *opctx.Context { return s.rc }

// SubscriberCount returns the number of currently registered subscribers.
func (s *QueryStore[V, E]) SubscriberCount() int { return s.subs.count() }

// State returns the store's derived observable status.
func (s *QueryStore[V, E]) State() state.OperationStatus[V, E] { return s.state.Status() }

// CurrentValue returns the store's current value, if any, falling back to a
// value installed by modifier.DefaultValue when the state has none.
func (s *QueryStore[V, E]) CurrentValue() (V, bool) {
	if v, ok := s.state.Current(); ok {
		return v, true
	}
	return modifier.DefaultValueFrom[V](s.rc)
}

// IsLoading reports whether the store has any active task.
func (s *QueryStore[V, E]) IsLoading() bool { return s.state.IsLoading() }

// IsStale evaluates the chain of StaleWhen predicates against the store's
// default context.
func (s *QueryStore[V, E]) IsStale() bool {
	return opctx.Get(s.rc, modifier.StalePredicateKey).IsSatisfied(s.rc)
}

// AutomaticRunningEnabled evaluates the EnableAutomaticRunning gate against
// the store's default context.
func (s *QueryStore[V, E]) AutomaticRunningEnabled() bool {
	return opctx.Get(s.rc, modifier.AutomaticRunningKey).IsSatisfied(s.rc)
}

// WithExclusiveAccess runs fn under the store's serialization discipline.
func (s *QueryStore[V, E]) WithExclusiveAccess(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *QueryStore[V, E]) publishChange() {
	s.subs.dispatch(Event[V, E]{Kind: StateChanged, Status: s.state.Status()})
}

func (s *QueryStore[V, E]) effectiveContext(override *opctx.Context) *opctx.Context {
	return firstNonNil(override, s.rc)
}

// Run asynchronously executes the store's request to completion, returning
// its terminal result. ctx governs caller-side cancellation; ctxOverride,
// if non-nil, replaces the store's default context for this run alone;
// handler, if non-nil, additionally observes this run's lifecycle events.
func (s *QueryStore[V, E]) Run(ctx context.Context, ctxOverride *opctx.Context, handler *modifier.EventHandler[V, E]) continuation.Result[V, E] {
	rc := s.effectiveContext(ctxOverride)
	req := s.req
	if handler != nil {
		req = modifier.Wrap(req, modifier.HandleEvents[V, E](*handler))
	}

	t := task.New[V, E](ctx, namedConfig(rc, "query.fetch"))

	s.WithExclusiveAccess(func() { s.state.ScheduleFetchTask(t) })
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

// RunTask starts Run on its own goroutine and returns immediately.
func (s *QueryStore[V, E]) RunTask(ctx context.Context, ctxOverride *opctx.Context, handler *modifier.EventHandler[V, E]) *Future[V, E] {
	return newFuture(func() continuation.Result[V, E] { return s.Run(ctx, ctxOverride, handler) })
}

// Fetch is Run with no per-call overrides, the common case.
func (s *QueryStore[V, E]) Fetch(ctx context.Context) continuation.Result[V, E] {
	return s.Run(ctx, nil, nil)
}

// ResetState restores the state container to its construction-time values
// and cancels every task it was holding.
func (s *QueryStore[V, E]) ResetState(ctxOverride *opctx.Context) {
	var effect state.ResetEffect
	s.WithExclusiveAccess(func() { effect = s.state.Reset(s.effectiveContext(ctxOverride)) })
	for _, c := range effect.TasksToCancel {
		c.Cancel()
	}
	s.publishChange()
}

// SetResult is a direct, store-initiated write.
func (s *QueryStore[V, E]) SetResult(result continuation.Result[V, E], ctxOverride *opctx.Context) {
	s.WithExclusiveAccess(func() { s.state.SetResult(result, s.effectiveContext(ctxOverride)) })
	s.publishChange()
}

// Subscribe registers h. If h is the first subscriber and the store is
// both stale and automatic-running-enabled, a run is scheduled
// automatically; if the subscriber count drops to zero while that run is
// still in flight, the run is cancelled.
func (s *QueryStore[V, E]) Subscribe(h Handler[V, E]) *subscription.Subscription {
	id := s.subs.add(h)
	if s.subs.count() == 1 && s.IsStale() && s.AutomaticRunningEnabled() {
		s.startAutomaticRun()
	}
	return subscription.New(func() {
		s.subs.remove(id)
		if s.subs.count() == 0 {
			s.cancelAutoRunIfAny()
		}
	})
}

func (s *QueryStore[V, E]) startAutomaticRun() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.autoRunCancel = cancel
	s.mu.Unlock()
	go func() {
		s.Run(ctx, nil, nil)
		s.mu.Lock()
		if s.autoRunCancel != nil {
			s.autoRunCancel = nil
		}
		s.mu.Unlock()
	}()
}

func (s *QueryStore[V, E]) cancelAutoRunIfAny() {
	s.mu.Lock()
	cancel := s.autoRunCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels every active task and unsubscribes rerun-on-change specs
// and controllers. Called by the client on eviction.
func (s *QueryStore[V, E]) Close() {
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
	for _, un := range s.rerunUnsub {
		un()
	}
	for _, sub := range s.controllerSubs {
		sub.Cancel()
	}
}

// Yield implements controller.Controls.
func (s *QueryStore[V, E]) Yield(value V, rc *opctx.Context) {
	s.SetResult(continuation.OkResult[V, E](value), rc)
}

// YieldError implements controller.Controls.
func (s *QueryStore[V, E]) YieldError(err E, rc *opctx.Context) {
	s.SetResult(continuation.ErrResult[V, E](err), rc)
}

// YieldResult implements controller.Controls.
func (s *QueryStore[V, E]) YieldResult(result continuation.Result[V, E], rc *opctx.Context) {
	s.SetResult(result, rc)
}

// YieldRefetch implements controller.Controls.
func (s *QueryStore[V, E]) YieldRefetch(rc *opctx.Context) (continuation.Result[V, E], bool) {
	if !s.AutomaticRunningEnabled() {
		var zero continuation.Result[V, E]
		return zero, false
	}
	return s.Run(context.Background(), rc, nil), true
}

// CanYieldRefetch implements controller.Controls.
func (s *QueryStore[V, E]) CanYieldRefetch() bool { return s.AutomaticRunningEnabled() }
