// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
)

var errBoom = errors.New("boom")

// fakeRequest is a request.Request[int, error] test double whose behavior is
// driven by a caller-supplied body function, with a call counter.
type fakeRequest struct {
	path opath.Path
	body func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error]

	calls int32
}

func (f *fakeRequest) Path() opath.Path { return f.path }

func (f *fakeRequest) Setup(rc *opctx.Context) *opctx.Context { return rc }

func (f *fakeRequest) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error]) continuation.Result[int, error] {
	call := int(atomic.AddInt32(&f.calls, 1))
	return f.body(ctx, rc, cont, call)
}

func (f *fakeRequest) callCount() int { return int(atomic.LoadInt32(&f.calls)) }

// failNTimes succeeds from call n+1 onward, returning errBoom before that.
func failNTimes(n int) *fakeRequest {
	return &fakeRequest{
		path: opath.New("fake"),
		body: func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error] {
			if call <= n {
				return continuation.ErrResult[int, error](errBoom)
			}
			return continuation.OkResult[int, error](call)
		},
	}
}

// blockingRequest blocks until release is closed, then returns its
// configured result. Used to exercise deduplication's waiter bookkeeping.
type blockingRequest struct {
	path    opath.Path
	release chan struct{}
	result  continuation.Result[int, error]

	mu     sync.Mutex
	starts int
}

func newBlockingRequest(result continuation.Result[int, error]) *blockingRequest {
	return &blockingRequest{path: opath.New("blocking"), release: make(chan struct{}), result: result}
}

func (b *blockingRequest) Path() opath.Path { return b.path }

func (b *blockingRequest) Setup(rc *opctx.Context) *opctx.Context { return rc }

func (b *blockingRequest) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error]) continuation.Result[int, error] {
	b.mu.Lock()
	b.starts++
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return b.result
}

func (b *blockingRequest) startCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.starts
}
