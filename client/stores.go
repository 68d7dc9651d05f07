// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package client

import (
	"context"
	"fmt"

	"github.com/querykit/querykit/request"
	"github.com/querykit/querykit/store"
)

// Go has no generic methods on interfaces, so a single Client method cannot
// be parameterized per call the way C.query<T>(...) can in languages with
// generic methods. QueryStoreFor/PaginatedStoreFor/MutationStoreFor are
// free functions instead, each idempotent by request.Path(): the first
// caller for a given path creates the store (collapsing concurrent
// first-access callers through a singleflight.Group keyed by the path's
// string form); every later caller, of the same request type, receives the
// same instance.

// QueryStoreFor returns the QueryStore for req.Path(), creating it with
// initial if this is the first access. A path already holding a store of a
// different request type yields a fresh, uncached store plus
// pkg/errors.ErrDuplicatePathDifferentType.
func QueryStoreFor[V any, E error](ctx context.Context, c *Client, req request.Request[V, E], initial *V) (*store.QueryStore[V, E], error) {
	typeName := fmt.Sprintf("query:%T", req)
	path := req.Path()

	s, existingType, err := c.resolve(path, typeName, func() (store.AnyStore, error) {
		return store.NewQuery[V, E](req, initial, c.DefaultContext()), nil
	})
	if err != nil {
		return nil, err
	}

	qs, ok := s.(*store.QueryStore[V, E])
	if !ok || existingType != typeName {
		return store.NewQuery[V, E](req, initial, c.DefaultContext()), c.warnDuplicatePath(ctx, path, existingType, typeName)
	}
	return qs, nil
}

// PaginatedStoreFor returns the PaginatedStore for p.Path(), creating it if
// this is the first access. Duplicate-type handling mirrors
// QueryStoreFor.
func PaginatedStoreFor[PID comparable, PV any, E error](ctx context.Context, c *Client, p request.Paginated[PID, PV, E], initial []request.Page[PID, PV]) (*store.PaginatedStore[PID, PV, E], error) {
	typeName := fmt.Sprintf("paginated:%T", p)
	req := request.AsPaginatedRequest[PID, PV, E](p)
	path := req.Path()

	s, existingType, err := c.resolve(path, typeName, func() (store.AnyStore, error) {
		return store.NewPaginated[PID, PV, E](p, initial, c.DefaultContext()), nil
	})
	if err != nil {
		return nil, err
	}

	ps, ok := s.(*store.PaginatedStore[PID, PV, E])
	if !ok || existingType != typeName {
		return store.NewPaginated[PID, PV, E](p, initial, c.DefaultContext()), c.warnDuplicatePath(ctx, path, existingType, typeName)
	}
	return ps, nil
}

// MutationStoreFor returns the MutationStore for m.Path(), creating it if
// this is the first access. Duplicate-type handling mirrors
// QueryStoreFor.
func MutationStoreFor[A any, V any, E error](ctx context.Context, c *Client, m request.Mutation[A, V, E], initial *V) (*store.MutationStore[A, V, E], error) {
	typeName := fmt.Sprintf("mutation:%T", m)
	req := request.AsMutationRequest[A, V, E](m)
	path := req.Path()

	s, existingType, err := c.resolve(path, typeName, func() (store.AnyStore, error) {
		return store.NewMutation[A, V, E](m, initial, c.DefaultContext()), nil
	})
	if err != nil {
		return nil, err
	}

	ms, ok := s.(*store.MutationStore[A, V, E])
	if !ok || existingType != typeName {
		return store.NewMutation[A, V, E](m, initial, c.DefaultContext()), c.warnDuplicatePath(ctx, path, existingType, typeName)
	}
	return ms, nil
}
