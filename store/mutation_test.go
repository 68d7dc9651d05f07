// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"context"
	"testing"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
)

type incrementMutation struct {
	path opath.Path
}

func (m *incrementMutation) Path() opath.Path                      { return m.path }
func (m *incrementMutation) Setup(rc *opctx.Context) *opctx.Context { return rc }
func (m *incrementMutation) Mutate(args int, rc *opctx.Context, cont *continuation.Continuation[int, error]) continuation.Result[int, error] {
	return continuation.OkResult[int, error](args + 1)
}

func TestMutationStoreMutateTracksHistory(t *testing.T) {
	m := &incrementMutation{path: opath.New("counter")}
	s := NewMutation[int, int, error](m, nil, opctx.New())

	result := s.Mutate(context.Background(), 1)
	if !result.Ok || result.Value != 2 {
		t.Fatalf("expected ok(2), got %+v", result)
	}
	if len(s.History()) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(s.History()))
	}
	if s.History()[0].Arguments != 1 {
		t.Fatalf("expected recorded arguments 1, got %v", s.History()[0].Arguments)
	}
}

func TestMutationStoreRetryLatestRerunsMostRecentArgs(t *testing.T) {
	m := &incrementMutation{path: opath.New("counter2")}
	s := NewMutation[int, int, error](m, nil, opctx.New())

	s.Mutate(context.Background(), 5)
	result, err := s.RetryLatest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Ok || result.Value != 6 {
		t.Fatalf("expected ok(6), got %+v", result)
	}
}

func TestMutationStoreRetryLatestWithNoHistoryErrors(t *testing.T) {
	m := &incrementMutation{path: opath.New("counter3")}
	s := NewMutation[int, int, error](m, nil, opctx.New())

	_, err := s.RetryLatest(context.Background())
	if err == nil {
		t.Fatal("expected ErrMutateNoHistory")
	}
}

func TestMutationStoreMaxHistoryLengthClampsEntries(t *testing.T) {
	m := &incrementMutation{path: opath.New("counter4")}
	s := NewMutation[int, int, error](m, nil, opctx.New())

	if err := s.SetMaxHistoryLength(2); err != nil {
		t.Fatalf("unexpected error setting max history: %v", err)
	}
	for i := 0; i < 5; i++ {
		s.Mutate(context.Background(), i)
	}
	if len(s.History()) != 2 {
		t.Fatalf("expected history clamped to 2 entries, got %d", len(s.History()))
	}
}

func TestMutationStoreSubscribeDoesNotTriggerRun(t *testing.T) {
	m := &incrementMutation{path: opath.New("counter5")}
	s := NewMutation[int, int, error](m, nil, opctx.New())

	sub := s.Subscribe(func(Event[int, error]) {})
	defer sub.Cancel()

	if s.IsLoading() {
		t.Fatal("expected a fresh mutation store to never auto-run on subscribe")
	}
}
