// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const configTemplate = `# config.toml - Generated by plexorphans config init
#
# Every key can also be set as PLEXORPHANS__<KEY>, e.g. PLEXORPHANS__BASE_URL.
# List keys take a comma-separated value in the environment. Commas inside {}
# stay with the glob and \, is a literal comma:
#   PLEXORPHANS__EXCLUDES="*.nfo,/music/**/*.{jpg,png}"
#   PLEXORPHANS__LIBRARY_EXCLUDES="Kids\, Family,Music"

# Base URL of the Plex server web interface
# Required
#baseUrl = "http://plex:32400/"

# Plex authentication token (X-Plex-Token)
# Prefer PLEXORPHANS__TOKEN over storing it here
# Required
#token = ""

# Map Plex folder paths to local paths, "from:to", first match wins
#folderMappings = ["/media:/tank/media"]

# Glob patterns of local files to ignore
# Patterns without a slash match the file name anywhere
#excludes = ["*.nfo", "/music/**/cover.*"]

# Only scan these libraries (mutually exclusive with libraryExcludes)
#libraries = []

# Scan every library except these
#libraryExcludes = []

# Descend into symlinked directories, cycles are detected
# Default: true
#followSymlinks = true

# Treat file names that differ only in Unicode normalization (NFC/NFD) as the
# same file. Enable for shares that rewrite names, e.g. macOS SMB clients
# Default: false
#unicodeNormalization = false

# Libraries scanned at once
# Default: 1
#sectionConcurrency = 1

# Concurrent catalog requests per library
# Default: 4
#fetchConcurrency = 4

# Maximum catalog nesting followed below a library
# Default: 16
#maxDepth = 16

# Per-request timeout in seconds
# Default: 30
#requestTimeout = 30

# Retries for transient Plex errors
# Default: 3
#retryAttempts = 3

# Request rate limit, 0 disables
# Default: 0
#requestsPerSecond = 0

# Report format
# Default: "text"
# Options: "text", "json", "yaml"
#output = "text"

# Write run metrics in Prometheus text format to this file
# Optional
#metricsTextfile = ""

# Log file path
# If not defined, logs to stderr only
# Optional
#logPath = "log/plexorphans.log"

# Log rotation
# Maximum log file size in megabytes before rotation
# Default: 50
#logMaxSize = 50

# Number of rotated log files to retain (0 keeps all)
# Default: 3
#logMaxBackups = 3

# Log level
# Default: "WARN"
# Options: "ERROR", "WARN", "INFO", "DEBUG", "TRACE"
logLevel = "WARN"
`

// WriteDefaultConfig writes a commented config.toml into dir, or into the
// default config directory when dir is empty. An existing file is left
// untouched and reported through the returned bool.
func WriteDefaultConfig(dir string) (string, bool, error) {
	if dir == "" {
		dir = getDefaultConfigDir()
	}
	path := filepath.Join(dir, configFileName)

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create config directory: %w", err)
	}
	// The file may later hold the token.
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return "", false, fmt.Errorf("write %s: %w", path, err)
	}
	return path, true, nil
}
