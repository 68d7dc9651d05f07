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

// PaginatedStore is the per-operation runtime for a paginated fetch.
type PaginatedStore[PID comparable, PV any, E error] struct {
	path opath.Path
	req  request.Request[request.PaginatedResult[PID, PV], E]
	rc   *opctx.Context

	mu    sync.Mutex
	state *state.PaginatedState[PID, PV, E]
	subs  *subscribers[[]request.Page[PID, PV], E]

	closed         bool
	autoRunCancel  context.CancelFunc
	rerunUnsub     []func()
	controllerSubs []*subscription.Subscription
}

// NewPaginated constructs a PaginatedStore for p.
func NewPaginated[PID comparable, PV any, E error](p request.Paginated[PID, PV, E], initial []request.Page[PID, PV], defaultCtx *opctx.Context) *PaginatedStore[PID, PV, E] {
	req := request.AsPaginatedRequest[PID, PV, E](p)
	s := &PaginatedStore[PID, PV, E]{
		path:  req.Path(),
		req:   req,
		state: state.NewPaginatedState[PID, PV, E](initial),
		subs:  newSubscribers[[]request.Page[PID, PV], E](),
	}
	s.rc = req.Setup(defaultCtx)
	s.wireRerunOnChange()
	s.wireControllers()
	return s
}

func (s *PaginatedStore[PID, PV, E]) wireRerunOnChange() {
	for _, spec := range opctx.Get(s.rc, modifier.RerunOnChangeKey) {
		spec := spec
		unsub := spec.OnChange(func() {
			if spec.IsSatisfied(s.rc) && s.AutomaticRunningEnabled() {
				s.startAutomaticRun(request.PagingRequest{Kind: request.InitialPage})
			}
		})
		s.rerunUnsub = append(s.rerunUnsub, unsub)
	}
}

func (s *PaginatedStore[PID, PV, E]) wireControllers() {
	for _, c := range modifier.ControllersFrom[[]request.Page[PID, PV], E](s.rc) {
		s.controllerSubs = append(s.controllerSubs, c.Control(s))
	}
}

// Path identifies this store.
func (s *PaginatedStore[PID, PV, E]) Path() opath.Path { return s.path }

// Context returns the store's default context, after Setup.
func (s *PaginatedStore[PID, PV, E]) Context() *opctx.Context { return s.rc }

// SubscriberCount returns the number of currently registered subscribers.
func (s *PaginatedStore[PID, PV, E]) SubscriberCount() int { return s.subs.count() }

// State returns the store's derived observable status.
func (s *PaginatedStore[PID, PV, E]) State() state.OperationStatus[[]request.Page[PID, PV], E] {
	return s.state.Status()
}

// CurrentPages returns a copy of the currently held pages.
func (s *PaginatedStore[PID, PV, E]) CurrentPages() []request.Page[PID, PV] { return s.state.Current() }

// HasNext reports whether a next page is known to exist.
func (s *PaginatedStore[PID, PV, E]) HasNext() bool { return s.state.HasNext() }

// HasPrevious reports whether a previous page is known to exist.
func (s *PaginatedStore[PID, PV, E]) HasPrevious() bool { return s.state.HasPrevious() }

// IsLoading reports whether any task, of any kind, is currently active.
func (s *PaginatedStore[PID, PV, E]) IsLoading() bool { return s.state.IsLoading() }

// IsStale evaluates the chain of StaleWhen predicates against the store's
// default context.
func (s *PaginatedStore[PID, PV, E]) IsStale() bool {
	return opctx.Get(s.rc, modifier.StalePredicateKey).IsSatisfied(s.rc)
}

// AutomaticRunningEnabled evaluates the EnableAutomaticRunning gate.
func (s *PaginatedStore[PID, PV, E]) AutomaticRunningEnabled() bool {
	return opctx.Get(s.rc, modifier.AutomaticRunningKey).IsSatisfied(s.rc)
}

// WithExclusiveAccess runs fn under the store's serialization discipline.
func (s *PaginatedStore[PID, PV, E]) WithExclusiveAccess(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *PaginatedStore[PID, PV, E]) publishChange() {
	s.subs.dispatch(Event[[]request.Page[PID, PV], E]{Kind: StateChanged, Status: s.state.Status()})
}

func defaultPagingName(kind request.PagingRequestKind) string {
	switch kind {
	case request.NextPage:
		return "paginated.next_page"
	case request.PreviousPage:
		return "paginated.previous_page"
	case request.AllPages:
		return "paginated.all_pages"
	default:
		return "paginated.initial_page"
	}
}

// run is the shared implementation backing Fetch/FetchNextPage/
// FetchPreviousPage/RefetchAllPages: it installs paging, the store's
// currently held pages, and any per-call handler, schedules a task with
// the paging kind's ordering dependencies, and ingests results as they
// arrive.
func (s *PaginatedStore[PID, PV, E]) run(ctx context.Context, paging request.PagingRequest, ctxOverride *opctx.Context, handler *modifier.EventHandler[[]request.Page[PID, PV], E]) continuation.Result[request.PaginatedResult[PID, PV], E] {
	base := firstNonNil(ctxOverride, s.rc)
	rc := opctx.With(base, request.PagingKey, paging)
	rc = request.WithCurrentPages(rc, s.state.Current())

	req := s.req
	if handler != nil {
		bridged := bridgeHandler(*handler)
		req = modifier.Wrap(req, modifier.HandleEvents[request.PaginatedResult[PID, PV], E](bridged))
	}

	deps := s.state.PendingDependencies(paging.Kind)
	t := task.New[request.PaginatedResult[PID, PV], E](ctx, namedConfig(rc, defaultPagingName(paging.Kind)), deps...)

	s.WithExclusiveAccess(func() { s.state.ScheduleFetchTask(t) })
	s.publishChange()

	cont := continuation.New(func(res continuation.Result[request.PaginatedResult[PID, PV], E], yctx *opctx.Context) {
		s.WithExclusiveAccess(func() { s.state.UpdateFromTask(t, res, firstNonNil(yctx, rc)) })
		s.publishChange()
	})

	result := t.Run(func(taskCtx context.Context) continuation.Result[request.PaginatedResult[PID, PV], E] {
		return req.Run(taskCtx, rc, cont)
	})

	s.WithExclusiveAccess(func() {
		s.state.UpdateFromTask(t, result, rc)
		s.state.FinishFetchTask(t)
	})
	s.publishChange()

	return result
}

// bridgeHandler adapts an EventHandler observing page lists (what a
// subscriber sees) to one observing PaginatedResult (what the request
// layer produces), so a per-call handler can be expressed in terms of the
// store's own Value type.
func bridgeHandler[PID comparable, PV any, E error](h modifier.EventHandler[[]request.Page[PID, PV], E]) modifier.EventHandler[request.PaginatedResult[PID, PV], E] {
	return modifier.EventHandler[request.PaginatedResult[PID, PV], E]{
		OnRunStarted: h.OnRunStarted,
		OnRunEnded:   h.OnRunEnded,
		OnResultReceived: func(result continuation.Result[request.PaginatedResult[PID, PV], E], rc *opctx.Context) {
			if h.OnResultReceived == nil {
				return
			}
			if result.Ok {
				h.OnResultReceived(continuation.OkResult[[]request.Page[PID, PV], E](result.Value.Pages), rc)
			} else {
				h.OnResultReceived(continuation.ErrResult[[]request.Page[PID, PV], E](result.Err), rc)
			}
		},
	}
}

func pagesResult[PID comparable, PV any, E error](r continuation.Result[request.PaginatedResult[PID, PV], E]) continuation.Result[[]request.Page[PID, PV], E] {
	if r.Ok {
		return continuation.OkResult[[]request.Page[PID, PV], E](r.Value.Pages)
	}
	return continuation.ErrResult[[]request.Page[PID, PV], E](r.Err)
}

// Fetch runs an InitialPage request, discarding any accumulated pages.
func (s *PaginatedStore[PID, PV, E]) Fetch(ctx context.Context) continuation.Result[[]request.Page[PID, PV], E] {
	return pagesResult[PID, PV, E](s.run(ctx, request.PagingRequest{Kind: request.InitialPage}, nil, nil))
}

// FetchNextPage runs a NextPage request for the store's current forward
// cursor, if any.
func (s *PaginatedStore[PID, PV, E]) FetchNextPage(ctx context.Context) continuation.Result[[]request.Page[PID, PV], E] {
	id, ok := s.state.NextPageID()
	if !ok {
		var zero continuation.Result[[]request.Page[PID, PV], E]
		return zero
	}
	return pagesResult[PID, PV, E](s.run(ctx, request.PagingRequest{Kind: request.NextPage, PageID: id}, nil, nil))
}

// FetchPreviousPage runs a PreviousPage request for the store's current
// backward cursor, if any.
func (s *PaginatedStore[PID, PV, E]) FetchPreviousPage(ctx context.Context) continuation.Result[[]request.Page[PID, PV], E] {
	id, ok := s.state.PreviousPageID()
	if !ok {
		var zero continuation.Result[[]request.Page[PID, PV], E]
		return zero
	}
	return pagesResult[PID, PV, E](s.run(ctx, request.PagingRequest{Kind: request.PreviousPage, PageID: id}, nil, nil))
}

// RefetchAllPages reruns every currently held page from scratch.
func (s *PaginatedStore[PID, PV, E]) RefetchAllPages(ctx context.Context) continuation.Result[[]request.Page[PID, PV], E] {
	return pagesResult[PID, PV, E](s.run(ctx, request.PagingRequest{Kind: request.AllPages}, nil, nil))
}

// ResetState restores the state container to its construction-time values
// and cancels every task it was holding.
func (s *PaginatedStore[PID, PV, E]) ResetState(ctxOverride *opctx.Context) {
	var effect state.ResetEffect
	s.WithExclusiveAccess(func() { effect = s.state.Reset(firstNonNil(ctxOverride, s.rc)) })
	for _, c := range effect.TasksToCancel {
		c.Cancel()
	}
	s.publishChange()
}

// SetResult is a direct, store-initiated write.
func (s *PaginatedStore[PID, PV, E]) SetResult(pages []request.Page[PID, PV], err *E, ctxOverride *opctx.Context) {
	rc := firstNonNil(ctxOverride, s.rc)
	var result continuation.Result[request.PaginatedResult[PID, PV], E]
	if err != nil {
		result = continuation.ErrResult[request.PaginatedResult[PID, PV], E](*err)
	} else {
		result = continuation.OkResult[request.PaginatedResult[PID, PV], E](request.PaginatedResult[PID, PV]{Pages: pages})
	}
	s.WithExclusiveAccess(func() { s.state.SetResult(result, rc) })
	s.publishChange()
}

// Subscribe registers h, triggering an automatic initial-page run under
// the same first-subscriber-while-stale rule as QueryStore.
func (s *PaginatedStore[PID, PV, E]) Subscribe(h Handler[[]request.Page[PID, PV], E]) *subscription.Subscription {
	id := s.subs.add(h)
	if s.subs.count() == 1 && s.IsStale() && s.AutomaticRunningEnabled() {
		s.startAutomaticRun(request.PagingRequest{Kind: request.InitialPage})
	}
	return subscription.New(func() {
		s.subs.remove(id)
		if s.subs.count() == 0 {
			s.cancelAutoRunIfAny()
		}
	})
}

func (s *PaginatedStore[PID, PV, E]) startAutomaticRun(paging request.PagingRequest) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.autoRunCancel = cancel
	s.mu.Unlock()
	go func() {
		s.run(ctx, paging, nil, nil)
		s.mu.Lock()
		s.autoRunCancel = nil
		s.mu.Unlock()
	}()
}

func (s *PaginatedStore[PID, PV, E]) cancelAutoRunIfAny() {
	s.mu.Lock()
	cancel := s.autoRunCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels every active task and unsubscribes rerun-on-change specs
// and controllers.
func (s *PaginatedStore[PID, PV, E]) Close() {
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
func (s *PaginatedStore[PID, PV, E]) Yield(pages []request.Page[PID, PV], rc *opctx.Context) {
	s.SetResult(pages, nil, rc)
}

// YieldError implements controller.Controls.
func (s *PaginatedStore[PID, PV, E]) YieldError(err E, rc *opctx.Context) {
	s.SetResult(nil, &err, rc)
}

// YieldResult implements controller.Controls.
func (s *PaginatedStore[PID, PV, E]) YieldResult(result continuation.Result[[]request.Page[PID, PV], E], rc *opctx.Context) {
	if result.Ok {
		s.SetResult(result.Value, nil, rc)
		return
	}
	s.SetResult(nil, &result.Err, rc)
}

// YieldRefetch implements controller.Controls: it reruns the InitialPage
// request.
func (s *PaginatedStore[PID, PV, E]) YieldRefetch(rc *opctx.Context) (continuation.Result[[]request.Page[PID, PV], E], bool) {
	if !s.AutomaticRunningEnabled() {
		var zero continuation.Result[[]request.Page[PID, PV], E]
		return zero, false
	}
	return pagesResult[PID, PV, E](s.run(context.Background(), request.PagingRequest{Kind: request.InitialPage}, rc, nil)), true
}

// CanYieldRefetch implements controller.Controls.
func (s *PaginatedStore[PID, PV, E]) CanYieldRefetch() bool { return s.AutomaticRunningEnabled() }
