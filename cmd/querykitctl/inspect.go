// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"

	"github.com/querykit/querykit/state"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [name]",
	Short: "Run the demo query store bound to [name], then print its observable state",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	name := args[0]
	c, _ := demoClient()

	s, err := demoStore(c, name)
	if err != nil {
		return err
	}

	s.Fetch(context.Background())

	status := s.State()
	switch status.Kind {
	case state.ResultOk:
		fmt.Printf("path=%s status=ok value=%q loading=%v stale=%v\n", s.Path().Key(), status.Value, s.IsLoading(), s.IsStale())
	case state.ResultErr:
		fmt.Printf("path=%s status=err err=%v loading=%v stale=%v\n", s.Path().Key(), status.Err, s.IsLoading(), s.IsStale())
	case state.Loading:
		fmt.Printf("path=%s status=loading\n", s.Path().Key())
	default:
		fmt.Printf("path=%s status=idle\n", s.Path().Key())
	}
	return nil
}
