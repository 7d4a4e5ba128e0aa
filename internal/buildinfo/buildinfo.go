// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package buildinfo exposes the version stamped into the binary.
package buildinfo

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent is sent with every Plex request.
var UserAgent = userAgent(Version)

func userAgent(version string) string {
	return fmt.Sprintf("plexorphans/%s (%s %s)", version, runtime.GOOS, runtime.GOARCH)
}

// Info is the machine readable form printed by `version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Current returns the stamped build details.
func Current() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the build details, one per line.
func String() string {
	info := Current()
	commit := info.Commit
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild date: %s\nGo: %s %s\n",
		info.Version, commit, info.Date, info.GoVersion, info.Platform)
}

func JSON() ([]byte, error) {
	return json.Marshal(Current())
}
