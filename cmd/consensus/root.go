// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/consensus-dev/consensus/internal/config"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// NewRootCmd creates the root consensus command with all subcommands.
// Each call starts from a clean global viper.
func NewRootCmd() *cobra.Command {
	viper.Reset()

	root := &cobra.Command{
		Use:           "consensus",
		Short:         "Match world events to portfolio holdings",
		Long:          "consensus ranks prediction-market events by their semantic relevance to the assets in a portfolio.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadDotEnv(".env"); err != nil {
				return err
			}
			if err := initViper(cmd); err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), viper.GetBool("verbose"))
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(),
		newAnalyzeCmd(),
		newEventsCmd(),
		newPortfolioCmd(),
		newSecretCmd(),
		newCacheCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// loadDotEnv exports variables from path when it exists. Variables already
// set in the environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return conserr.Errorf(conserr.CodeConfigLoadReadFailure, "loading %s: %w", path, err)
}

// initViper applies defaults, environment, config file and flag bindings to
// the global viper so the precedence is flag > env > file > defaults.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return conserr.Errorf(conserr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is left unset so viper does not try the bare name,
		// which would match a ./consensus binary.
		v.SetConfigName("consensus")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/consensus")
		v.AddConfigPath("/etc/consensus")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return conserr.Errorf(conserr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return conserr.Errorf(conserr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	if err := v.BindPFlag("data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return conserr.Errorf(conserr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return conserr.Errorf(conserr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}

// loadConfig decodes and validates the global viper state.
func loadConfig() (*config.Config, error) {
	config.WarnInsecurePermissions(viper.ConfigFileUsed())
	return config.FromViper(viper.GetViper())
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
