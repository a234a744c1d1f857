// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the current events from the configured source",
		RunE:  runEvents,
	}
	addOutputFlag(cmd)
	return cmd
}

func runEvents(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	src, err := newEventSource(cfg)
	if err != nil {
		return err
	}
	events, err := src.Events(commandContext(cmd))
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), format, events, func(w io.Writer) error {
		return writeEvents(w, events)
	})
}
