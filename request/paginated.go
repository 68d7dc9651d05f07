// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package request

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
)

// PagingRequestKind distinguishes the four ways a paginated request can be
// driven.
type PagingRequestKind int

const (
	// InitialPage fetches the first page and discards any accumulated
	// pages.
	InitialPage PagingRequestKind = iota
	// NextPage fetches the page identified by PageID and appends it.
	NextPage
	// PreviousPage fetches the page identified by PageID and prepends it.
	PreviousPage
	// AllPages refetches every currently held page, in order, from
	// scratch.
	AllPages
)

// PagingRequest selects which page(s) a Paginated run should fetch. PageID
// holds the requester's PID boxed as any; it is meaningful only for
// NextPage and PreviousPage.
type PagingRequest struct {
	Kind   PagingRequestKind
	PageID any
}

// PagingKey carries the active PagingRequest through a run's context.
var PagingKey = opctx.NewKey[PagingRequest]("paging.request", PagingRequest{Kind: InitialPage})

// pagesKey carries the store's currently held pages into a run, boxed as
// any since its element type varies per Paginated instantiation.
var pagesKey = opctx.NewKey[any]("paging.current_pages", nil)

// Page is one fetched unit of a paginated sequence, keyed by PID.
type Page[PID comparable, PV any] struct {
	ID    PID
	Value PV
}

// PaginatedResult is what a Paginated request's run yields and returns: the
// assembled page list plus the newly computed forward/backward cursors.
// NextPageID and PreviousPageID are nil when no further page exists in that
// direction, or when they have not yet been computed for an intermediate
// yield.
type PaginatedResult[PID comparable, PV any] struct {
	Pages          []Page[PID, PV]
	NextPageID     *PID
	PreviousPageID *PID
}

// WithCurrentPages installs the store's currently held pages into rc, so an
// AllPages run can restart from them.
func WithCurrentPages[PID comparable, PV any](rc *opctx.Context, pages []Page[PID, PV]) *opctx.Context {
	return opctx.With(rc, pagesKey, any(pages))
}

func currentPages[PID comparable, PV any](rc *opctx.Context) []Page[PID, PV] {
	v := opctx.Get(rc, pagesKey)
	pages, _ := v.([]Page[PID, PV])
	return pages
}

// Paginated is a Request specialization that fetches pages of a sequence
// keyed by PID, one page's value at a time.
type Paginated[PID comparable, PV any, E error] interface {
	Path() opath.Path
	Setup(rc *opctx.Context) *opctx.Context

	// InitialPageID identifies the first page fetched by InitialPage and
	// AllPages.
	InitialPageID() PID

	// PageIDAfter returns the id of the page following page, or false if
	// none exists.
	PageIDAfter(page Page[PID, PV], paging PagingRequest, rc *opctx.Context) (PID, bool)

	// PageIDBefore returns the id of the page preceding page, or false if
	// none exists.
	PageIDBefore(page Page[PID, PV], paging PagingRequest, rc *opctx.Context) (PID, bool)

	// FetchPage fetches the single page identified by pageID. cont may
	// receive intermediate values of the page itself prior to the
	// terminal result.
	FetchPage(pageID PID, paging PagingRequest, rc *opctx.Context, cont *continuation.Continuation[PV, E]) continuation.Result[PV, E]
}

// AsPaginatedRequest adapts a Paginated into a Request whose run dispatches
// on rc's PagingKey and orchestrates page assembly per the paging request
// kind.
func AsPaginatedRequest[PID comparable, PV any, E error](p Paginated[PID, PV, E]) Request[PaginatedResult[PID, PV], E] {
	return &paginatedRequest[PID, PV, E]{p: p}
}

type paginatedRequest[PID comparable, PV any, E error] struct {
	p Paginated[PID, PV, E]
}

func (r *paginatedRequest[PID, PV, E]) Path() opath.Path { return r.p.Path() }

func (r *paginatedRequest[PID, PV, E]) Setup(rc *opctx.Context) *opctx.Context {
	return r.p.Setup(rc)
}

func (r *paginatedRequest[PID, PV, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[PaginatedResult[PID, PV], E]) continuation.Result[PaginatedResult[PID, PV], E] {
	paging := opctx.Get(rc, PagingKey)
	existing := currentPages[PID, PV](rc)

	switch paging.Kind {
	case NextPage:
		return r.runNextPage(paging, rc, existing, cont)
	case PreviousPage:
		return r.runPreviousPage(paging, rc, existing, cont)
	case AllPages:
		return r.runAllPages(paging, rc, existing, cont)
	default:
		return r.runInitialPage(paging, rc, cont)
	}
}

func (r *paginatedRequest[PID, PV, E]) runInitialPage(paging PagingRequest, rc *opctx.Context, cont *continuation.Continuation[PaginatedResult[PID, PV], E]) continuation.Result[PaginatedResult[PID, PV], E] {
	pageID := r.p.InitialPageID()
	page, res := r.fetchOnePage(pageID, paging, rc, nil, cont)
	if !res.Ok {
		return continuation.ErrResult[PaginatedResult[PID, PV], E](res.Err)
	}
	pages := []Page[PID, PV]{page}
	next, hasNext := r.p.PageIDAfter(page, paging, rc)
	prev, hasPrev := r.p.PageIDBefore(page, paging, rc)
	return continuation.OkResult[PaginatedResult[PID, PV], E](PaginatedResult[PID, PV]{
		Pages:          pages,
		NextPageID:     optional(next, hasNext),
		PreviousPageID: optional(prev, hasPrev),
	})
}

func (r *paginatedRequest[PID, PV, E]) runNextPage(paging PagingRequest, rc *opctx.Context, existing []Page[PID, PV], cont *continuation.Continuation[PaginatedResult[PID, PV], E]) continuation.Result[PaginatedResult[PID, PV], E] {
	pageID, _ := paging.PageID.(PID)
	page, res := r.fetchOnePage(pageID, paging, rc, existing, cont)
	if !res.Ok {
		return continuation.ErrResult[PaginatedResult[PID, PV], E](res.Err)
	}
	pages := append(append([]Page[PID, PV]{}, existing...), page)
	next, hasNext := r.p.PageIDAfter(page, paging, rc)
	var prevID PID
	hasPrev := false
	if len(pages) > 0 {
		prevID, hasPrev = r.p.PageIDBefore(pages[0], paging, rc)
	}
	return continuation.OkResult[PaginatedResult[PID, PV], E](PaginatedResult[PID, PV]{
		Pages:          pages,
		NextPageID:     optional(next, hasNext),
		PreviousPageID: optional(prevID, hasPrev),
	})
}

func (r *paginatedRequest[PID, PV, E]) runPreviousPage(paging PagingRequest, rc *opctx.Context, existing []Page[PID, PV], cont *continuation.Continuation[PaginatedResult[PID, PV], E]) continuation.Result[PaginatedResult[PID, PV], E] {
	pageID, _ := paging.PageID.(PID)
	page, res := r.fetchOnePage(pageID, paging, rc, existing, cont)
	if !res.Ok {
		return continuation.ErrResult[PaginatedResult[PID, PV], E](res.Err)
	}
	pages := append([]Page[PID, PV]{page}, existing...)
	prev, hasPrev := r.p.PageIDBefore(page, paging, rc)
	var nextID PID
	hasNext := false
	if len(pages) > 0 {
		nextID, hasNext = r.p.PageIDAfter(pages[len(pages)-1], paging, rc)
	}
	return continuation.OkResult[PaginatedResult[PID, PV], E](PaginatedResult[PID, PV]{
		Pages:          pages,
		NextPageID:     optional(nextID, hasNext),
		PreviousPageID: optional(prev, hasPrev),
	})
}

func (r *paginatedRequest[PID, PV, E]) runAllPages(paging PagingRequest, rc *opctx.Context, existing []Page[PID, PV], cont *continuation.Continuation[PaginatedResult[PID, PV], E]) continuation.Result[PaginatedResult[PID, PV], E] {
	count := len(existing)
	rebuilt := make([]Page[PID, PV], 0, count)

	for i := 0; i < count; i++ {
		var pageID PID
		var has bool
		if len(rebuilt) == 0 {
			pageID, has = r.p.InitialPageID(), true
		} else {
			pageID, has = r.p.PageIDAfter(rebuilt[len(rebuilt)-1], paging, rc)
		}
		if !has {
			break
		}
		page, res := r.fetchOnePage(pageID, paging, rc, rebuilt, cont)
		if !res.Ok {
			return continuation.ErrResult[PaginatedResult[PID, PV], E](res.Err)
		}
		rebuilt = append(rebuilt, page)
		if cont != nil {
			cont.Yield(PaginatedResult[PID, PV]{Pages: append([]Page[PID, PV]{}, rebuilt...)}, nil)
		}
	}

	var nextID, prevID PID
	var hasNext, hasPrev bool
	if len(rebuilt) > 0 {
		nextID, hasNext = r.p.PageIDAfter(rebuilt[len(rebuilt)-1], paging, rc)
		prevID, hasPrev = r.p.PageIDBefore(rebuilt[0], paging, rc)
	}
	return continuation.OkResult[PaginatedResult[PID, PV], E](PaginatedResult[PID, PV]{
		Pages:          rebuilt,
		NextPageID:     optional(nextID, hasNext),
		PreviousPageID: optional(prevID, hasPrev),
	})
}

// fetchOnePage fetches pageID, bridging any intermediate PV yields from
// FetchPage into PaginatedResult yields on the outer continuation so a
// subscriber always observes the same response shape regardless of which
// paging request produced it.
func (r *paginatedRequest[PID, PV, E]) fetchOnePage(pageID PID, paging PagingRequest, rc *opctx.Context, basePages []Page[PID, PV], outer *continuation.Continuation[PaginatedResult[PID, PV], E]) (Page[PID, PV], continuation.Result[PV, E]) {
	bridge := continuation.New(func(res continuation.Result[PV, E], yctx *opctx.Context) {
		if outer == nil {
			return
		}
		if res.Ok {
			partial := append(append([]Page[PID, PV]{}, basePages...), Page[PID, PV]{ID: pageID, Value: res.Value})
			outer.Yield(PaginatedResult[PID, PV]{Pages: partial}, yctx)
		} else {
			outer.YieldError(res.Err, yctx)
		}
	})
	res := r.p.FetchPage(pageID, paging, rc, bridge)
	if !res.Ok {
		return Page[PID, PV]{}, res
	}
	return Page[PID, PV]{ID: pageID, Value: res.Value}, res
}

func optional[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}
