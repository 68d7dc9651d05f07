// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/querykit/querykit/client"
	"github.com/querykit/querykit/config"
	"github.com/querykit/querykit/continuation"
	"github.com/querykit/querykit/observability/logging"
	"github.com/querykit/querykit/observability/metrics"
	"github.com/querykit/querykit/opath"
	"github.com/querykit/querykit/opctx"
	"github.com/querykit/querykit/store"
)

// demoRequest is a canned Query[string, error] request simulating a small
// piece of remote work: it yields a "fetching..." intermediate value, sleeps
// briefly, then returns a greeting built from the path it was bound to.
type demoRequest struct {
	path  opath.Path
	delay time.Duration
}

func newDemoRequest(name string) *demoRequest {
	return &demoRequest{path: opath.New("demo", name), delay: 20 * time.Millisecond}
}

func (r *demoRequest) Path() opath.Path { return r.path }

func (r *demoRequest) Setup(rc *opctx.Context) *opctx.Context { return rc }

func (r *demoRequest) Run(ctx context.Context, rc *opctx.Context, cont *continuation.Continuation[string, error]) continuation.Result[string, error] {
	if cont != nil {
		cont.Yield("fetching...", nil)
	}
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return continuation.ErrResult[string, error](ctx.Err())
	}
	return continuation.OkResult[string, error](fmt.Sprintf("hello, %v", r.path.Elements()[1]))
}

// demoClient builds the shared Client every subcommand drives, wired with
// the default policy and a logger, and returns alongside it a RunMetrics over
// a fresh Prometheus collector (not attached to the client) for the caller
// to record runs through.
func demoClient() (*client.Client, *metrics.RunMetrics) {
	collector := metrics.NewPrometheusCollector()
	runMetrics := metrics.NewRunMetrics(collector)
	c := client.New(
		client.WithPolicy(config.DefaultPolicy()),
		client.WithLogger(logging.NewStructuredLogger(logging.LevelInfo)),
	)
	return c, runMetrics
}

func demoStore(c *client.Client, name string) (*store.QueryStore[string, error], error) {
	req := newDemoRequest(name)
	return client.QueryStoreFor[string, error](context.Background(), c, req, nil)
}
