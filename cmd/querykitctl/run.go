// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/querykit/querykit/store"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Fetch the demo query store bound to [name] and print its result",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]
	c, runMetrics := demoClient()

	s, err := demoStore(c, name)
	if err != nil {
		return err
	}

	sub := s.Subscribe(func(ev store.Event[string, error]) {
		fmt.Printf("event: loading=%v\n", s.IsLoading())
	})
	defer sub.Cancel()

	start := time.Now()
	result := s.Fetch(context.Background())
	runMetrics.RecordRun(s.Path().Key(), "query", time.Since(start).Seconds(), result.Ok)

	if result.Ok {
		fmt.Printf("ok: %s\n", result.Value)
	} else {
		fmt.Printf("error: %v\n", result.Err)
	}
	return nil
}
