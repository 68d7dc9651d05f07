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

func TestDefaultValueIsObservableInContext(t *testing.T) {
	var observed int
	var ok bool
	base := &fakeRequest{
		path: opath.New("default"),
		body: func(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[int, error], call int) continuation.Result[int, error] {
			observed, ok = DefaultValueFrom[int](rc)
			return continuation.OkResult[int, error](1)
		},
	}

	r := Wrap[int, error](base, DefaultValue[int, error](42))
	r.Run(context.Background(), opctx.New(), nil)

	if !ok || observed != 42 {
		t.Fatalf("expected default value 42, got %v ok=%v", observed, ok)
	}
}

func TestDefaultValueAbsentByDefault(t *testing.T) {
	_, ok := DefaultValueFrom[int](opctx.New())
	if ok {
		t.Error("expected no default value without the modifier installed")
	}
}
