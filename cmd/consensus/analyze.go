// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Match current events against a portfolio",
		Long: `Fetch the current events, embed them together with the user's holdings and
print the events that clearly relate to exactly one holding. With --explain
every event's scores and verdict are printed instead.`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("user", "u", "", "user whose portfolio is analyzed")
	cmd.Flags().Bool("explain", false, "print per-event scores and verdicts")
	addOutputFlag(cmd)
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	userID, _ := cmd.Flags().GetString("user")
	explain, _ := cmd.Flags().GetBool("explain")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := Wire(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("closing resources", "error", err)
		}
	}()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if explain {
		rep, err := app.Service.Explain(ctx, userID)
		if err != nil {
			return err
		}
		return render(out, format, rep, func(w io.Writer) error {
			return writeReport(w, rep)
		})
	}

	events, err := app.Service.Match(ctx, userID)
	if err != nil {
		return err
	}
	return render(out, format, events, func(w io.Writer) error {
		return writeEvents(w, events)
	})
}
