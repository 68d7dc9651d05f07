// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Command querykitctl is a development/diagnostic CLI that exercises the
// client/store API end to end against an in-process demo client. It never
// listens on a socket; the run, inspect and reset subcommands each drive a
// single demo QueryStore built from a canned request and print the resulting
// observable state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "querykitctl",
	Short: "Inspect the querykit operation runtime from the command line",
	Long: `querykitctl drives an in-process querykit client against a canned demo
request, for manual inspection of the store/client runtime without writing
a Go program. It is a development tool, not a service: it holds no open
ports and persists nothing between invocations.`,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
