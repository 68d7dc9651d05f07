// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package state

import (
	"errors"
	"testing"
	"time"

	"github.com/querykit/querykit/duration"
	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/task"
)

var errQueryBoom = errors.New("boom")

func frozenContext(at time.Time) *opctx.Context {
	return opctx.With(opctx.New(), duration.ClockKey, duration.TimeFreeze(at))
}

func TestQueryStateIdleInitially(t *testing.T) {
	s := NewQueryState[int, error](nil)

	if s.IsLoading() {
		t.Error("expected not loading with no active tasks")
	}
	status := s.Status()
	if !status.IsIdle() {
		t.Errorf("expected idle status, got %+v", status)
	}
	if _, ok := s.Current(); ok {
		t.Error("expected no current value")
	}
}

func TestQueryStateScheduleAndFinish(t *testing.T) {
	s := NewQueryState[int, error](nil)
	tk := task.New[int, error](contextBG(), task.Config{})

	s.ScheduleFetchTask(tk)
	if !s.IsLoading() {
		t.Error("expected loading once a task is scheduled")
	}
	if !s.Status().IsLoading() {
		t.Error("expected loading status")
	}

	s.FinishFetchTask(tk)
	if s.IsLoading() {
		t.Error("expected not loading after finish")
	}
}

func TestQueryStateUpdateOkClearsError(t *testing.T) {
	s := NewQueryState[int, error](nil)
	rc := frozenContext(time.Unix(100, 0))

	s.SetResult(continuation.ErrResult[int, error](errQueryBoom), rc)
	if _, ok := s.Error(); !ok {
		t.Fatal("expected error recorded")
	}

	rc2 := frozenContext(time.Unix(200, 0))
	s.SetResult(continuation.OkResult[int, error](42), rc2)

	v, ok := s.Current()
	if !ok || v != 42 {
		t.Fatalf("expected current 42, got %v ok=%v", v, ok)
	}
	if _, ok := s.Error(); ok {
		t.Error("expected error cleared after a successful update")
	}

	status := s.Status()
	if status.Kind != ResultOk || status.Value != 42 {
		t.Errorf("expected ResultOk(42), got %+v", status)
	}
}

func TestQueryStateUpdateCountsMonotonic(t *testing.T) {
	s := NewQueryState[int, error](nil)
	rc := frozenContext(time.Unix(1, 0))

	s.SetResult(continuation.OkResult[int, error](1), rc)
	s.SetResult(continuation.OkResult[int, error](2), rc)
	if s.valueUpdateCount != 2 {
		t.Errorf("valueUpdateCount = %d, want 2", s.valueUpdateCount)
	}

	s.SetResult(continuation.ErrResult[int, error](errQueryBoom), rc)
	if s.errorUpdateCount != 1 {
		t.Errorf("errorUpdateCount = %d, want 1", s.errorUpdateCount)
	}
	if s.valueUpdateCount != 2 {
		t.Errorf("valueUpdateCount should be unaffected by an error update, got %d", s.valueUpdateCount)
	}
}

func TestQueryStateStatusPicksMoreRecentTimestamp(t *testing.T) {
	s := NewQueryState[int, error](nil)

	s.SetResult(continuation.OkResult[int, error](1), frozenContext(time.Unix(100, 0)))
	s.SetResult(continuation.ErrResult[int, error](errQueryBoom), frozenContext(time.Unix(200, 0)))

	status := s.Status()
	if status.Kind != ResultErr {
		t.Errorf("expected ResultErr since the error is more recent, got %+v", status)
	}

	// A later successful update should flip the status back.
	s.SetResult(continuation.OkResult[int, error](2), frozenContext(time.Unix(300, 0)))
	status = s.Status()
	if status.Kind != ResultOk || status.Value != 2 {
		t.Errorf("expected ResultOk(2), got %+v", status)
	}
}

func TestQueryStateReset(t *testing.T) {
	initial := 7
	s := NewQueryState[int, error](&initial)
	tk := task.New[int, error](contextBG(), task.Config{})
	s.ScheduleFetchTask(tk)
	s.SetResult(continuation.OkResult[int, error](99), frozenContext(time.Unix(1, 0)))

	effect := s.Reset(opctx.New())

	if len(effect.TasksToCancel) != 1 {
		t.Fatalf("expected 1 task to cancel, got %d", len(effect.TasksToCancel))
	}
	v, ok := s.Current()
	if !ok || v != 7 {
		t.Fatalf("expected reset to restore initial value 7, got %v ok=%v", v, ok)
	}
	if s.IsLoading() {
		t.Error("expected not loading after reset")
	}
	if !s.Status().IsIdle() {
		t.Error("expected idle status after reset with no prior error")
	}
}
