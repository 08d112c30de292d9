// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command ntlockdemo is a console harness exercising the ringq and arc
// packages, the Go translation of original_source's
// lock-free-ring-buffer/example/main.c and
// lock-free-smart-pointer/example/main.c. It contains no primitive
// algorithm code of its own — only goroutine plumbing around the public
// API, matching spec.md's "core exposes the primitives; harnesses use
// them."
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ntlockdemo",
	Short: "ntlockdemo exercises the ringq and arc lock-free primitives",
	Long:  "ntlockdemo is a console harness exercising the ringq (MPMC ring buffer) and arc (atomic shared pointer) packages.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(newRingQCmd())
	rootCmd.AddCommand(newArcCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
