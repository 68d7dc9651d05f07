// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package state

import (
	"errors"
	"testing"
	"time"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/duration"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/task"
)

var errPageBoom = errors.New("page boom")

func taskWithPaging(kind request.PagingRequestKind, pageID any) *task.Task[request.PaginatedResult[int, string], error] {
	rc := opctx.With(opctx.New(), request.PagingKey, request.PagingRequest{Kind: kind, PageID: pageID})
	return task.New[request.PaginatedResult[int, string], error](contextBG(), task.Config{Context: rc})
}

func intPtr(i int) *int { return &i }

func TestPaginatedStateHasNextInitially(t *testing.T) {
	s := NewPaginatedState[int, string, error](nil)

	if !s.HasNext() {
		t.Error("expected has_next true when current is empty")
	}
	if !s.HasPrevious() {
		t.Error("expected has_previous true when current is empty")
	}
}

func TestPaginatedStateInitialPageUpdate(t *testing.T) {
	s := NewPaginatedState[int, string, error](nil)
	tk := taskWithPaging(request.InitialPage, nil)
	s.ScheduleFetchTask(tk)

	result := continuation.OkResult[request.PaginatedResult[int, string], error](request.PaginatedResult[int, string]{
		Pages:      []request.Page[int, string]{{ID: 0, Value: "p0"}},
		NextPageID: intPtr(1),
	})
	s.UpdateFromTask(tk, result, frozenContext(time.Unix(1, 0)))
	s.FinishFetchTask(tk)

	if s.IsLoading() {
		t.Error("expected not loading after finish")
	}
	current := s.Current()
	if len(current) != 1 || current[0].ID != 0 {
		t.Fatalf("expected single page 0, got %+v", current)
	}
	next, ok := s.NextPageID()
	if !ok || next != 1 {
		t.Fatalf("expected next page id 1, got %v ok=%v", next, ok)
	}
	if s.HasNext() != true {
		t.Error("expected has_next true")
	}
}

func TestPaginatedStateDependenciesPerKind(t *testing.T) {
	s := NewPaginatedState[int, string, error](nil)

	initialTask := taskWithPaging(request.InitialPage, nil)
	s.ScheduleFetchTask(initialTask)

	if deps := s.PendingDependencies(request.InitialPage); len(deps) != 0 {
		t.Errorf("InitialPage should have no dependencies, got %d", len(deps))
	}
	if deps := s.PendingDependencies(request.NextPage); len(deps) != 1 {
		t.Errorf("NextPage should wait for the active initial-page task, got %d deps", len(deps))
	}
	if deps := s.PendingDependencies(request.PreviousPage); len(deps) != 1 {
		t.Errorf("PreviousPage should wait for the active initial-page task, got %d deps", len(deps))
	}
	if deps := s.PendingDependencies(request.AllPages); len(deps) != 1 {
		t.Errorf("AllPages should wait for the active initial-page task, got %d deps", len(deps))
	}

	s.FinishFetchTask(initialTask)

	nextTask := taskWithPaging(request.NextPage, 1)
	prevTask := taskWithPaging(request.PreviousPage, 0)
	s.ScheduleFetchTask(nextTask)
	s.ScheduleFetchTask(prevTask)

	// NextPage and PreviousPage may run concurrently: neither depends on
	// the other.
	if deps := s.PendingDependencies(request.NextPage); len(deps) != 0 {
		t.Errorf("a second NextPage should not wait on an active PreviousPage, got %d deps", len(deps))
	}
	if deps := s.PendingDependencies(request.AllPages); len(deps) != 2 {
		t.Errorf("AllPages should wait for both active single-page tasks, got %d deps", len(deps))
	}
}

func TestPaginatedStateErrorPropagates(t *testing.T) {
	s := NewPaginatedState[int, string, error](nil)
	tk := taskWithPaging(request.InitialPage, nil)
	s.ScheduleFetchTask(tk)

	s.UpdateFromTask(tk, continuation.ErrResult[request.PaginatedResult[int, string], error](errPageBoom), frozenContext(time.Unix(1, 0)))
	s.FinishFetchTask(tk)

	errVal, ok := s.Error()
	if !ok || errVal != errPageBoom {
		t.Fatalf("expected errPageBoom recorded, got %v ok=%v", errVal, ok)
	}
	if s.Status().Kind != ResultErr {
		t.Errorf("expected ResultErr status, got %+v", s.Status())
	}
}

func TestPaginatedStateReset(t *testing.T) {
	existing := []request.Page[int, string]{{ID: 0, Value: "p0"}}
	s := NewPaginatedState[int, string, error](existing)
	tk := taskWithPaging(request.NextPage, 1)
	s.ScheduleFetchTask(tk)

	effect := s.Reset(opctx.New())

	if len(effect.TasksToCancel) != 1 {
		t.Fatalf("expected 1 task to cancel, got %d", len(effect.TasksToCancel))
	}
	current := s.Current()
	if len(current) != 1 || current[0].ID != 0 {
		t.Fatalf("expected reset to restore initial pages, got %+v", current)
	}
	if s.IsLoading() {
		t.Error("expected not loading after reset")
	}
}
