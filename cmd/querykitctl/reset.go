// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [name]",
	Short: "Run the demo query store bound to [name], then reset it and print the restored state",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	name := args[0]
	c, _ := demoClient()

	s, err := demoStore(c, name)
	if err != nil {
		return err
	}

	s.Fetch(context.Background())
	s.ResetState(nil)

	_, hasValue := s.CurrentValue()
	fmt.Printf("path=%s reset ok, has_value=%v loading=%v\n", s.Path().Key(), hasValue, s.IsLoading())
	return nil
}
