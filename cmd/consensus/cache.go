// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the persistent embedding cache",
	}
	cmd.AddCommand(newCachePruneCmd())
	return cmd
}

func newCachePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop cached embeddings older than a cutoff",
		RunE:  runCachePrune,
	}
	cmd.Flags().Duration("older-than", 30*24*time.Hour, "drop entries stored longer ago than this")
	return cmd
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	age, _ := cmd.Flags().GetDuration("older-than")
	if age <= 0 {
		return conserr.Errorf(conserr.CodeCLIInputInvalid, "--older-than must be positive, got %s", age)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ps, ec, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := ec.Close(); err != nil {
			slog.Warn("closing embedding cache", "error", err)
		}
		if err := ps.Close(); err != nil {
			slog.Warn("closing portfolio store", "error", err)
		}
	}()

	n, err := ec.Prune(commandContext(cmd), time.Now().Add(-age))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cached embeddings\n", n)
	return nil
}
