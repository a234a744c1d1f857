// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

func newPortfolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Manage the assets in a user's portfolio",
		Long:  "List, add and remove the assets whose keywords and descriptions are matched against events.",
	}

	cmd.PersistentFlags().StringP("user", "u", "", "portfolio owner")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(
		newPortfolioListCmd(),
		newPortfolioAddCmd(),
		newPortfolioRemoveCmd(),
	)
	return cmd
}

func newPortfolioListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the assets in the portfolio",
		RunE:  runPortfolioList,
	}
	addOutputFlag(cmd)
	return cmd
}

func newPortfolioAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <symbol>",
		Short: "Add an asset, merging into an existing one with the same symbol",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioAdd,
	}
	cmd.Flags().Float64("quantity", 0, "units held")
	cmd.Flags().Float64("value", 0, "position value")
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().StringSlice("keywords", nil, "comma-separated matching keywords")
	cmd.Flags().String("description", "", "free-text description used for matching")
	return cmd
}

func newPortfolioRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove an asset by symbol",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioRemove,
	}
}

// withPortfolios opens the stores for the duration of fn. No embedding
// provider is wired, so portfolio edits never need an API key.
func withPortfolios(fn func(store.PortfolioStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ps, ec, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := ps.Close(); err != nil {
			slog.Warn("closing portfolio store", "error", err)
		}
		if err := ec.Close(); err != nil {
			slog.Warn("closing embedding cache", "error", err)
		}
	}()
	return fn(ps)
}

func portfolioUser(cmd *cobra.Command) (string, error) {
	userID, _ := cmd.Flags().GetString("user")
	if err := store.ValidateUserID(userID); err != nil {
		return "", conserr.Wrap(err, conserr.CodeCLIInputInvalid, "invalid --user")
	}
	return userID, nil
}

func runPortfolioList(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	userID, err := portfolioUser(cmd)
	if err != nil {
		return err
	}

	return withPortfolios(func(ps store.PortfolioStore) error {
		p, err := ps.Get(commandContext(cmd), userID)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), format, p, func(w io.Writer) error {
			return writePortfolio(w, p)
		})
	})
}

func runPortfolioAdd(cmd *cobra.Command, args []string) error {
	userID, err := portfolioUser(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	asset := store.Asset{Symbol: args[0]}
	asset.Quantity, _ = flags.GetFloat64("quantity")
	asset.Value, _ = flags.GetFloat64("value")
	asset.Name, _ = flags.GetString("name")
	asset.Keywords, _ = flags.GetStringSlice("keywords")
	asset.Description, _ = flags.GetString("description")

	return withPortfolios(func(ps store.PortfolioStore) error {
		p, err := ps.AddAsset(commandContext(cmd), userID, asset)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s (%d assets)\n", asset.Symbol, userID, len(p.Assets))
		return nil
	})
}

func runPortfolioRemove(cmd *cobra.Command, args []string) error {
	userID, err := portfolioUser(cmd)
	if err != nil {
		return err
	}

	return withPortfolios(func(ps store.PortfolioStore) error {
		if err := ps.RemoveAsset(commandContext(cmd), userID, args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[0], userID)
		return nil
	})
}
