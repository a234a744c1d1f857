// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/consensus-dev/consensus/internal/analysis"
	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/types"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", string(types.OutputText), "output format: text, json or yaml")
}

func outputFormat(cmd *cobra.Command) (types.OutputFormat, error) {
	raw, _ := cmd.Flags().GetString("output")
	return types.ParseOutputFormat(raw)
}

// render writes v as JSON or YAML, or calls text for the human format.
func render(w io.Writer, format types.OutputFormat, v any, text func(io.Writer) error) error {
	switch format {
	case types.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return conserr.Wrap(err, conserr.CodeCLIRequestFailure, "encoding json output")
		}
		return nil
	case types.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return conserr.Wrap(err, conserr.CodeCLIRequestFailure, "encoding yaml output")
		}
		return enc.Close()
	default:
		return text(w)
	}
}

func writeEvents(w io.Writer, events []types.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No events.")
		return err
	}
	for i, ev := range events {
		if _, err := fmt.Fprintf(w, "%d. %s [%s]\n", i+1, ev.Title, ev.ID); err != nil {
			return err
		}
		if ev.Description != "" {
			if _, err := fmt.Fprintf(w, "   %s\n", firstLine(ev.Description)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReport(w io.Writer, rep *analysis.Report) error {
	if _, err := fmt.Fprintf(w, "user %s, %s/%s, threshold %.3f, margin %.3f\n",
		rep.UserID, rep.Provider, rep.Model, rep.SimilarityThreshold, rep.UniquenessMargin); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d events, %d holdings, %d accepted, %d returned\n\n",
		rep.EventCount, rep.HoldingCount, rep.Matched, len(rep.Events)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EVENT\tBEST\tSECOND\tMARGIN\tHOLDING\tVERDICT\tTITLE")
	for _, d := range rep.Decisions {
		holding := "-"
		if d.Holding != nil {
			holding = strconv.Itoa(d.HoldingIndex)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.EventID, score(d.Best), score(d.SecondBest), score(d.Margin), holding, verdict(d), d.EventTitle)
	}
	return tw.Flush()
}

func writePortfolio(w io.Writer, p *store.Portfolio) error {
	if len(p.Assets) == 0 {
		_, err := fmt.Fprintf(w, "Portfolio for %s is empty.\n", p.UserID)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SYMBOL\tQUANTITY\tNAME\tKEYWORDS\tDESCRIPTION")
	for _, a := range p.Assets {
		_, _ = fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\n",
			a.Symbol, a.Quantity, a.Name, strings.Join(a.Keywords, ", "), firstLine(a.Description))
	}
	return tw.Flush()
}

func score(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func verdict(d analysis.Decision) string {
	switch {
	case d.Accepted && d.Filtered:
		return "filtered"
	case d.Accepted:
		return "match"
	default:
		return "-"
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
