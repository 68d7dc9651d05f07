// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
)

var errBoom = errors.New("boom")

type countingQuery struct {
	path  opath.Path
	calls int32
	body  func(call int) continuation.Result[int, error]
}

func (q *countingQuery) Path() opath.Path                        { return q.path }
func (q *countingQuery) Setup(rc *opctx.Context) *opctx.Context   { return rc }
func (q *countingQuery) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error]) continuation.Result[int, error] {
	call := int(atomic.AddInt32(&q.calls, 1))
	return q.body(call)
}

func TestQueryStoreFetchSucceeds(t *testing.T) {
	q := &countingQuery{
		path: opath.New("items", 1),
		body: func(call int) continuation.Result[int, error] { return continuation.OkResult[int, error](42) },
	}
	s := NewQuery[int, error](q, nil, opctx.New())

	result := s.Fetch(context.Background())
	if !result.Ok || result.Value != 42 {
		t.Fatalf("expected ok(42), got %+v", result)
	}
	if v, ok := s.CurrentValue(); !ok || v != 42 {
		t.Fatalf("expected CurrentValue 42, got %v, %v", v, ok)
	}
	if s.IsLoading() {
		t.Fatal("expected IsLoading false after completion")
	}
}

func TestQueryStoreFetchFailurePropagates(t *testing.T) {
	q := &countingQuery{
		path: opath.New("items", 2),
		body: func(call int) continuation.Result[int, error] { return continuation.ErrResult[int, error](errBoom) },
	}
	s := NewQuery[int, error](q, nil, opctx.New())

	result := s.Fetch(context.Background())
	if result.Ok {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Err != errBoom {
		t.Fatalf("expected errBoom, got %v", result.Err)
	}
}

func TestQueryStoreSubscribeDispatchesChanges(t *testing.T) {
	q := &countingQuery{
		path: opath.New("items", 3),
		body: func(call int) continuation.Result[int, error] { return continuation.OkResult[int, error](7) },
	}
	s := NewQuery[int, error](q, nil, opctx.New())

	var events int32
	sub := s.Subscribe(func(Event[int, error]) { atomic.AddInt32(&events, 1) })
	defer sub.Cancel()

	s.Fetch(context.Background())

	if atomic.LoadInt32(&events) == 0 {
		t.Fatal("expected at least one dispatched event")
	}
}

func TestQueryStoreResetCancelsAndClearsValue(t *testing.T) {
	q := &countingQuery{
		path: opath.New("items", 4),
		body: func(call int) continuation.Result[int, error] { return continuation.OkResult[int, error](1) },
	}
	s := NewQuery[int, error](q, nil, opctx.New())

	s.Fetch(context.Background())
	s.ResetState(nil)

	if _, ok := s.CurrentValue(); ok {
		t.Fatal("expected no current value after reset")
	}
}

func TestQueryStoreSubscriberCountAndClose(t *testing.T) {
	q := &countingQuery{
		path: opath.New("items", 5),
		body: func(call int) continuation.Result[int, error] { return continuation.OkResult[int, error](1) },
	}
	s := NewQuery[int, error](q, nil, opctx.New())

	sub := s.Subscribe(func(Event[int, error]) {})
	if s.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", s.SubscriberCount())
	}
	sub.Cancel()
	if s.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", s.SubscriberCount())
	}

	s.Close()
	if s.Path().Key() == "" {
		t.Fatal("expected store to still report its path after Close")
	}
}
