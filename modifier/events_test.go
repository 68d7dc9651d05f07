// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"
	"testing"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
)

func TestHandleEventsFiresLifecycleInOrder(t *testing.T) {
	var events []string

	base := &fakeRequest{
		path: opath.New("events"),
		body: func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error] {
			cont.Yield(1, nil)
			return continuation.OkResult[int, error](2)
		},
	}

	var received []continuation.Result[int, error]
	var reasons []continuation.ResultUpdateReason

	r := Wrap[int, error](base, HandleEvents[int, error](EventHandler[int, error]{
		OnRunStarted: func(rc *opctx.Context) { events = append(events, "started") },
		OnResultReceived: func(result continuation.Result[int, error], rc *opctx.Context) {
			received = append(received, result)
			reasons = append(reasons, opctx.Get(rc, ResultUpdateReasonKey))
		},
		OnRunEnded: func(rc *opctx.Context) { events = append(events, "ended") },
	}))

	var yielded []int
	outer := continuation.New(func(result continuation.Result[int, error], _ *opctx.Context) {
		if result.Ok {
			yielded = append(yielded, result.Value)
		}
	})

	result := r.Run(context.Background(), opctx.New(), outer)

	if !result.Ok || result.Value != 2 {
		t.Fatalf("expected ok(2), got %+v", result)
	}
	if len(events) != 2 || events[0] != "started" || events[1] != "ended" {
		t.Fatalf("expected [started ended], got %v", events)
	}
	if len(received) != 2 {
		t.Fatalf("expected 2 result notifications (yield + final), got %d", len(received))
	}
	if reasons[0] != continuation.YieldedResult {
		t.Errorf("expected first notification to be YieldedResult, got %v", reasons[0])
	}
	if reasons[1] != continuation.ReturnedFinalResult {
		t.Errorf("expected second notification to be ReturnedFinalResult, got %v", reasons[1])
	}
	if len(yielded) != 1 || yielded[0] != 1 {
		t.Fatalf("expected the outer continuation to still observe the yield, got %v", yielded)
	}
}

func TestHandleEventsFiresOnRunEndedOnFailure(t *testing.T) {
	base := failNTimes(10)
	var ended bool

	r := Wrap[int, error](base, HandleEvents[int, error](EventHandler[int, error]{
		OnRunEnded: func(rc *opctx.Context) { ended = true },
	}))

	result := r.Run(context.Background(), opctx.New(), nil)
	if result.Ok {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !ended {
		t.Error("expected OnRunEnded to fire even on failure")
	}
}

func TestHandleEventsWithNilHandlersIsANoop(t *testing.T) {
	base := failNTimes(0)
	r := Wrap[int, error](base, HandleEvents[int, error](EventHandler[int, error]{}))

	result := r.Run(context.Background(), opctx.New(), nil)
	if !result.Ok || result.Value != 1 {
		t.Fatalf("expected ok(1), got %+v", result)
	}
}
