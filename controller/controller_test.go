// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package controller

import (
	"testing"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/subscription"
)

type fakeControls struct {
	yielded    []int
	canRefetch bool
}

func (f *fakeControls) Yield(value int, rc *opctx.Context) { f.yielded = append(f.yielded, value) }
func (f *fakeControls) YieldError(err error, rc *opctx.Context) {}
func (f *fakeControls) YieldResult(result continuation.Result[int, error], rc *opctx.Context) {
	if result.Ok {
		f.yielded = append(f.yielded, result.Value)
	}
}
func (f *fakeControls) YieldRefetch(rc *opctx.Context) (continuation.Result[int, error], bool) {
	if !f.canRefetch {
		var zero continuation.Result[int, error]
		return zero, false
	}
	return continuation.OkResult[int, error](99), true
}
func (f *fakeControls) CanYieldRefetch() bool           { return f.canRefetch }
func (f *fakeControls) Context() *opctx.Context         { return opctx.New() }

func TestFuncControllerControlsInvokesBody(t *testing.T) {
	fc := &fakeControls{}
	var captured Controls[int, error]

	c := Func[int, error](func(controls Controls[int, error]) *subscription.Subscription {
		captured = controls
		controls.Yield(1, nil)
		return subscription.Noop()
	})

	sub := c.Control(fc)
	defer sub.Cancel()

	if captured == nil {
		t.Fatal("expected Control to receive the controls handle")
	}
	if len(fc.yielded) != 1 || fc.yielded[0] != 1 {
		t.Fatalf("expected a single yielded value of 1, got %v", fc.yielded)
	}
}

func TestFuncControllerSubscriptionCancelRunsCleanup(t *testing.T) {
	cancelled := false
	c := Func[int, error](func(controls Controls[int, error]) *subscription.Subscription {
		return subscription.New(func() { cancelled = true })
	})

	sub := c.Control(&fakeControls{})
	sub.Cancel()

	if !cancelled {
		t.Fatal("expected cancelling the returned subscription to run its cleanup")
	}
}
