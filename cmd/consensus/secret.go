// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"bufio"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/consensus-dev/consensus/internal/embedding"
	"github.com/consensus-dev/consensus/internal/secrets"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage provider API keys stored in the OS keyring",
		Long:  "Store, list and delete embedding provider API keys kept under the consensus service in the operating system keyring.",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretListCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Store the API key for an embedding provider",
		Long: `Store the API key for an embedding provider. The key is read from --value
or, when omitted, from the first line of stdin. Reference it from the config
as keyring://consensus/<provider>-api-key.`,
		Args: cobra.ExactArgs(1),
		RunE: runSecretSet,
	}
	cmd.Flags().String("value", "", "API key (read from stdin when empty)")
	return cmd
}

func newSecretListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored secret names",
		RunE:  runSecretList,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	provider := strings.ToLower(args[0])
	if !slices.Contains(embedding.Names(), provider) {
		return conserr.Errorf(conserr.CodeCLIInputInvalid,
			"unknown provider %q (known: %s)", args[0], strings.Join(embedding.Names(), ", "))
	}

	value, _ := cmd.Flags().GetString("value")
	if value == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return conserr.Errorf(conserr.CodeCLIInputInvalid, "reading api key from stdin: %w", err)
		}
		value = strings.TrimSpace(line)
	}
	if value == "" {
		return conserr.New(conserr.CodeCLIInputInvalid, "api key is empty")
	}

	key := secrets.ProviderKey(provider)
	if err := secretStoreFactory().Store(secrets.DefaultService, key, value); err != nil {
		return conserr.Errorf(conserr.CodeSecretStoreFailure, "storing secret %q: %w", key, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored secret: %s\nReference it as %s\n", key, secrets.ProviderKeyURI(provider))
	return nil
}

func runSecretList(cmd *cobra.Command, _ []string) error {
	keys, err := secretStoreFactory().List(secrets.DefaultService)
	if err != nil {
		return conserr.Errorf(conserr.CodeSecretListFailure, "listing secrets: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "No secrets stored.")
		return nil
	}

	slices.Sort(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintln(out, k)
	}
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := secretStoreFactory().Delete(secrets.DefaultService, name); err != nil {
		if conserr.HasCode(err, conserr.CodeSecretNotFound) {
			return conserr.Errorf(conserr.CodeSecretNotFound, "secret %q not found", name)
		}
		return conserr.Errorf(conserr.CodeSecretDeleteFailure, "deleting secret %q: %w", name, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
	return nil
}
