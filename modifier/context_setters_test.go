// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"
	"testing"
	"time"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/duration"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/resilience"
)

func TestBackoffInstallsFunctionForRun(t *testing.T) {
	var observed resilience.BackoffFunc
	base := &fakeRequest{
		path: opath.New("backoff"),
		body: func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error] {
			observed = opctx.Get(rc, BackoffKey)
			return continuation.OkResult[int, error](1)
		},
	}
	fn := resilience.Constant(duration.FromSeconds(2))
	r := Wrap[int, error](base, Backoff[int, error](fn))

	r.Run(context.Background(), opctx.New(), nil)

	if observed(1).Compare(duration.FromSeconds(2)) != 0 {
		t.Errorf("expected the installed backoff function to be observable, got %+v", observed(1))
	}
}

func TestDelayerInstallsDelayerForRun(t *testing.T) {
	var observed resilience.Delayer
	base := &fakeRequest{
		path: opath.New("delayer"),
		body: func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error] {
			observed = opctx.Get(rc, DelayerKey)
			return continuation.OkResult[int, error](1)
		},
	}
	d := resilience.NoDelay()
	r := Wrap[int, error](base, Delayer[int, error](d))

	r.Run(context.Background(), opctx.New(), nil)

	if observed == nil {
		t.Fatal("expected a delayer to be installed")
	}
}

func TestClockInstallsClockForRun(t *testing.T) {
	var observed duration.Clock
	base := &fakeRequest{
		path: opath.New("clock"),
		body: func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error] {
			observed = opctx.Get(rc, duration.ClockKey)
			return continuation.OkResult[int, error](1)
		},
	}
	frozen := duration.TimeFreeze(time.Unix(100, 0))
	r := Wrap[int, error](base, Clock[int, error](frozen))

	r.Run(context.Background(), opctx.New(), nil)

	if observed != frozen {
		t.Error("expected the installed clock to be observable")
	}
}

func TestSetupChainsThroughToBase(t *testing.T) {
	var sawBackoffInSetup bool
	base := &fakeRequest{path: opath.New("setup")}
	wrapped := &setupObserver{base: base, onSetup: func(rc *opctx.Context) {
		sawBackoffInSetup = opctx.Get(rc, BackoffKey) != nil
	}}

	r := Wrap[int, error](wrapped, Backoff[int, error](resilience.NoBackoff()))
	r.Setup(opctx.New())

	if !sawBackoffInSetup {
		t.Error("expected Setup to install the backoff function before forwarding to the base")
	}
}

type setupObserver struct {
	base    *fakeRequest
	onSetup func(rc *opctx.Context)
}

func (s *setupObserver) Path() opath.Path { return s.base.Path() }

func (s *setupObserver) Setup(rc *opctx.Context) *opctx.Context {
	s.onSetup(rc)
	return s.base.Setup(rc)
}

func (s *setupObserver) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error]) continuation.Result[int, error] {
	return s.base.Run(ctx, rc, cont)
}
