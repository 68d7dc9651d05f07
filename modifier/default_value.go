// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package modifier

import (
	"context"

	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/request"
)

// DefaultValueKey carries a modifier-installed default value, boxed as any
// (its concrete type is the owning request's Value type; see ControllersKey
// in this package for the same any-boxing pattern). CurrentValue on
// QueryStore and MutationStore falls back to this value when the inner state
// has none.
var DefaultValueKey = opctx.NewKey[any]("default_value", nil)

type defaultValueModifier[V any, E error] struct {
	value V
}

// DefaultValue installs v as the value a store presents whenever its
// underlying state has not yet produced one.
func DefaultValue[V any, E error](v V) Modifier[V, E] {
	return &defaultValueModifier[V, E]{value: v}
}

func (m *defaultValueModifier[V, E]) Setup(rc *opctx.Context, base request.Request[V, E]) *opctx.Context {
	return base.Setup(opctx.With(rc, DefaultValueKey, any(m.value)))
}

func (m *defaultValueModifier[V, E]) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[V, E], base request.Request[V, E]) continuation.Result[V, E] {
	return base.Run(ctx, opctx.With(rc, DefaultValueKey, any(m.value)), cont)
}

// DefaultValueFrom reads the default value installed by DefaultValue out of
// rc, if any.
func DefaultValueFrom[V any](rc *opctx.Context) (V, bool) {
	v, ok := opctx.Get(rc, DefaultValueKey).(V)
	return v, ok
}
