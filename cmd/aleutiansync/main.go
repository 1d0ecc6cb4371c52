// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command aleutiansync is the CLI front end for the sync core. It runs
// the scan/locate/plan pipeline in-process — no server required.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// projectRoot holds the --root persistent flag value.
var projectRoot string

func main() {
	rootCmd := &cobra.Command{
		Use:   "aleutiansync",
		Short: "Keep C/C++ implementation files in header declaration order",
		Long: `aleutiansync extracts function prototypes from a C/C++ header,
locates their implementations across the source tree, and can rewrite an
implementation file so definitions follow declaration order.

The analysis is heuristic and line-oriented: no compiler, no build-system
integration. See 'aleutiansync scan --help' to get started.`,
	}

	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".",
		"Project root to enumerate candidate files under")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newImplsCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newApplyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
