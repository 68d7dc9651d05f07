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

func TestMaxHistoryLengthInstallsValue(t *testing.T) {
	var observed int
	base := &fakeRequest{
		path: opath.New("history"),
		body: func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error] {
			observed = opctx.Get(rc, MaxHistoryLengthKey)
			return continuation.OkResult[int, error](1)
		},
	}

	r := Wrap[int, error](base, MaxHistoryLength[int, error](5))
	r.Run(context.Background(), opctx.New(), nil)

	if observed != 5 {
		t.Fatalf("expected max history length 5, got %d", observed)
	}
}

func TestMaxHistoryLengthPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a non-positive max history length")
		}
	}()
	MaxHistoryLength[int, error](0)
}
