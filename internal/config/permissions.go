// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// groupOrOtherRead covers the group and world read bits.
const groupOrOtherRead fs.FileMode = 0o044

// WarnInsecurePermissions logs a warning when the config file at path is
// readable by group or others. Provider API keys may live in it.
func WarnInsecurePermissions(path string) {
	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	if info.Mode().Perm()&groupOrOtherRead != 0 {
		slog.Warn("config file is readable by other users, api keys may be exposed",
			"path", path,
			"mode", info.Mode(),
			"recommended", "0600",
		)
	}
}
