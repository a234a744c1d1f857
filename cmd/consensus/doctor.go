// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/consensus-dev/consensus/internal/config"
	"github.com/consensus-dev/consensus/internal/secrets"
)

// doctorHTTPClient probes the running server. Tests substitute it.
var doctorHTTPClient = &http.Client{Timeout: 2 * time.Second}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the configuration, the provider API key, the running server and free disk space for the data directory.",
		RunE:  runDoctor,
	}

	cmd.Flags().String("address", "", "server address to probe (defaults to networking.listen)")

	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	addr, _ := cmd.Flags().GetString("address")
	if addr == "" {
		addr = viper.GetString("networking.listen")
	}
	dataDir := viper.GetString("data_dir")

	// A config that fails validation is reported, not fatal.
	cfg, cfgErr := loadConfig()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", func() string { return checkConfig(cfgErr) }},
		{"API Key", func() string { return checkAPIKey(cfg) }},
		{"Server", func() string { return checkServer(addr) }},
		{"Disk Space", func() string { return checkDiskSpace(dataDir) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("consensus %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(err error) string {
	if err != nil {
		return fmt.Sprintf("invalid: %s", err)
	}
	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkAPIKey(cfg *config.Config) string {
	if cfg == nil {
		return "skipped (config invalid)"
	}
	provider := cfg.Embedding.Provider
	raw := cfg.Provider().APIKey
	if raw == "" {
		return fmt.Sprintf("missing for %s (run 'consensus secret set %s')", provider, provider)
	}
	if !secrets.IsKeyringURI(raw) {
		return fmt.Sprintf("set for %s in config", provider)
	}
	if _, err := secrets.Resolve(secretStoreFactory(), raw); err != nil {
		return fmt.Sprintf("unresolved %s (run 'consensus secret set %s')", raw, provider)
	}
	return fmt.Sprintf("set for %s in keyring", provider)
}

func checkServer(addr string) string {
	resp, err := doctorHTTPClient.Get("http://" + addr + "/health")
	if err != nil {
		return fmt.Sprintf("not running at %s (run 'consensus serve')", addr)
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status == "" {
		return fmt.Sprintf("unexpected response from %s (HTTP %d)", addr, resp.StatusCode)
	}
	return fmt.Sprintf("%s at %s", body.Status, addr)
}

func checkDiskSpace(dataDir string) string {
	path := dataDir
	if _, err := os.Stat(path); path == "" || os.IsNotExist(err) {
		// The data directory is created on first use.
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
