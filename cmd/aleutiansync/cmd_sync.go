// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	syncsvc "github.com/AleutianAI/AleutianSync/services/sync"
	"github.com/AleutianAI/AleutianSync/services/sync/cache"
	"github.com/AleutianAI/AleutianSync/services/sync/config"
	"github.com/AleutianAI/AleutianSync/services/sync/planner"
	"github.com/AleutianAI/AleutianSync/services/sync/workspace"
)

// newCLIService builds an in-process service over the local filesystem.
// The CLI runs without scan persistence or header watching: every
// invocation rescans, which is the predictable behavior for one-shot use.
func newCLIService() (*syncsvc.Service, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, err
	}

	return syncsvc.NewService(syncsvc.ServiceConfig{
		Config:      cfg,
		Store:       cache.NewMemoryStore(),
		Workspace:   workspace.NewFS(),
		ProjectRoot: projectRoot,
	})
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <header>",
		Short: "Extract function prototypes from a header",
		Args:  cobra.ExactArgs(1),
		RunE:  runScanCommand,
	}
}

func runScanCommand(_ *cobra.Command, args []string) error {
	svc, err := newCLIService()
	if err != nil {
		return err
	}

	protos, err := svc.ScanHeader(context.Background(), args[0])
	if err != nil {
		return err
	}

	if len(protos) == 0 {
		fmt.Println("No prototypes found.")
		return nil
	}
	for i, p := range protos {
		fmt.Printf("%3d. %-30s lines %s\n", i+1, p.Name, p.Span)
	}
	fmt.Printf("\n%d prototype(s) in declaration order.\n", len(protos))
	return nil
}

func newImplsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "impls <header>",
		Short: "Locate implementations of a header's prototypes",
		Args:  cobra.ExactArgs(1),
		RunE:  runImplsCommand,
	}
}

func runImplsCommand(_ *cobra.Command, args []string) error {
	svc, err := newCLIService()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := svc.ScanHeader(ctx, args[0]); err != nil {
		return err
	}

	impls, err := svc.FindImplementations(ctx, args[0])
	if err != nil {
		return err
	}

	if len(impls) == 0 {
		fmt.Println("No implementations found.")
		return nil
	}
	for _, im := range impls {
		fmt.Printf("%-30s %s lines %s\n", im.Name, im.SourceFile, im.Span)
	}
	fmt.Printf("\n%d implementation(s).\n", len(impls))
	return nil
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <header> <target-file>",
		Short: "Preview the reorder plan for an implementation file",
		Long: `Computes the replacement range and reordered text without writing.

The range spans the extremes of ALL matched implementations in the file:
any unrelated code between the first and last matched function is swept
into the replacement. Always preview before 'apply'.`,
		Args: cobra.ExactArgs(2),
		RunE: runPlanCommand,
	}
}

func runPlanCommand(_ *cobra.Command, args []string) error {
	plan, err := computePlan(args[0], args[1])
	if err != nil {
		return err
	}
	if plan == nil {
		fmt.Println("Nothing to reorder.")
		return nil
	}

	fmt.Printf("File:      %s\n", plan.File)
	fmt.Printf("Range:     lines %s\n", plan.Range)
	fmt.Printf("Reordered: %d block(s)\n\n", plan.Reordered)
	fmt.Println(plan.NewText)
	return nil
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <header> <target-file>",
		Short: "Reorder an implementation file to match its header",
		Args:  cobra.ExactArgs(2),
		RunE:  runApplyCommand,
	}
}

func runApplyCommand(_ *cobra.Command, args []string) error {
	plan, err := computePlan(args[0], args[1])
	if err != nil {
		return err
	}
	if plan == nil {
		fmt.Println("Nothing to reorder.")
		return nil
	}

	svc, err := newCLIService()
	if err != nil {
		return err
	}
	if err := svc.ApplyPlan(context.Background(), plan); err != nil {
		return err
	}

	fmt.Printf("Reordered %d block(s) in %s (lines %s).\n",
		plan.Reordered, plan.File, plan.Range)
	return nil
}

// computePlan runs scan + synchronize for one header/target pair.
// Returns (nil, nil) on NoOp.
func computePlan(header, target string) (*planner.ReplacementPlan, error) {
	svc, err := newCLIService()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if _, err := svc.ScanHeader(ctx, header); err != nil {
		return nil, err
	}

	plan, err := svc.SynchronizeOrder(ctx, header, target)
	if errors.Is(err, planner.ErrNothingToReorder) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}
