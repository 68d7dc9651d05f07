// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package state

import (
	"errors"
	"testing"
	"time"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/task"
)

var errMutationBoom = errors.New("mutation boom")

func TestNewMutationStatePanicsOnInvalidHistoryLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-positive max history length")
		}
	}()
	NewMutationState[string, int, error](nil, 0)
}

func TestMutationStateHistoryLifecycle(t *testing.T) {
	s := NewMutationState[string, int, error](nil, 10)
	tk := task.New[int, error](contextBG(), task.Config{})

	s.ScheduleFetchTask(tk, "create")
	if !s.IsLoading() {
		t.Error("expected loading with an unfinished entry")
	}

	s.UpdateFromTask(tk, continuation.OkResult[int, error](1), frozenContext(time.Unix(1, 0)))
	s.FinishFetchTask(tk)

	if s.IsLoading() {
		t.Error("expected not loading after finish")
	}
	v, ok := s.Current()
	if !ok || v != 1 {
		t.Fatalf("expected current 1, got %v ok=%v", v, ok)
	}

	history := s.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].Arguments != "create" {
		t.Errorf("expected arguments %q, got %q", "create", history[0].Arguments)
	}
	if !history[0].Finished {
		t.Error("expected entry finished")
	}
}

func TestMutationStateHistoryBounded(t *testing.T) {
	s := NewMutationState[string, int, error](nil, 2)

	for i := 0; i < 5; i++ {
		tk := task.New[int, error](contextBG(), task.Config{})
		s.ScheduleFetchTask(tk, "m")
		s.UpdateFromTask(tk, continuation.OkResult[int, error](i), frozenContext(time.Unix(int64(i), 0)))
		s.FinishFetchTask(tk)
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected history bounded to 2 entries, got %d", len(history))
	}
	// Oldest evicted first: the surviving entries are the two most recent
	// invocations.
	if history[len(history)-1].CurrentResult.Value != 4 {
		t.Errorf("expected last surviving entry to be the most recent invocation, got %+v", history[len(history)-1])
	}
}

func TestMutationStateYieldedOverridesStaleHistory(t *testing.T) {
	s := NewMutationState[string, int, error](nil, 10)
	tk := task.New[int, error](contextBG(), task.Config{})
	s.ScheduleFetchTask(tk, "create")
	s.UpdateFromTask(tk, continuation.OkResult[int, error](1), frozenContext(time.Unix(10, 0)))
	s.FinishFetchTask(tk)

	// A later direct write should win since its timestamp is more recent.
	s.SetResult(continuation.OkResult[int, error](99), frozenContext(time.Unix(20, 0)))

	v, ok := s.Current()
	if !ok || v != 99 {
		t.Fatalf("expected the more recent yielded value 99, got %v ok=%v", v, ok)
	}
}

func TestMutationStateFallsBackToInitial(t *testing.T) {
	initial := 5
	s := NewMutationState[string, int, error](&initial, 10)

	v, ok := s.Current()
	if !ok || v != 5 {
		t.Fatalf("expected initial value 5 with no invocations, got %v ok=%v", v, ok)
	}
	if !s.Status().IsIdle() {
		t.Errorf("expected idle status with no invocations, got %+v", s.Status())
	}
}

func TestMutationStateReset(t *testing.T) {
	s := NewMutationState[string, int, error](nil, 10)
	tk := task.New[int, error](contextBG(), task.Config{})
	s.ScheduleFetchTask(tk, "create")

	effect := s.Reset(opctx.New())

	if len(effect.TasksToCancel) != 1 {
		t.Fatalf("expected 1 unfinished task to cancel, got %d", len(effect.TasksToCancel))
	}
	if len(s.History()) != 0 {
		t.Error("expected history cleared after reset")
	}
	if s.IsLoading() {
		t.Error("expected not loading after reset")
	}
}

func TestMutationStateSetMaxHistoryLengthInvalid(t *testing.T) {
	s := NewMutationState[string, int, error](nil, 10)
	if err := s.SetMaxHistoryLength(0); err == nil {
		t.Fatal("expected error for non-positive max history length")
	}
}

func TestMutationStateErrorEntry(t *testing.T) {
	s := NewMutationState[string, int, error](nil, 10)
	tk := task.New[int, error](contextBG(), task.Config{})
	s.ScheduleFetchTask(tk, "create")
	s.UpdateFromTask(tk, continuation.ErrResult[int, error](errMutationBoom), frozenContext(time.Unix(1, 0)))
	s.FinishFetchTask(tk)

	errVal, ok := s.Error()
	if !ok || errVal != errMutationBoom {
		t.Fatalf("expected errMutationBoom, got %v ok=%v", errVal, ok)
	}
}
