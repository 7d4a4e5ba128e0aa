// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Output formats for the orphan report.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config represents the application configuration
type Config struct {
	Version string
	BaseURL string `toml:"baseUrl" mapstructure:"baseUrl"`
	Token   string `toml:"token" mapstructure:"token"`

	// FolderMappings are "from:to" prefix rewrites, applied in order, first match wins.
	FolderMappings []string `toml:"folderMappings" mapstructure:"folderMappings"`
	// Excludes are glob patterns of local files to ignore (e.g. /media/**/*.nfo).
	Excludes        []string `toml:"excludes" mapstructure:"excludes"`
	Libraries       []string `toml:"libraries" mapstructure:"libraries"`
	LibraryExcludes []string `toml:"libraryExcludes" mapstructure:"libraryExcludes"`

	FollowSymlinks       bool `toml:"followSymlinks" mapstructure:"followSymlinks"`
	UnicodeNormalization bool `toml:"unicodeNormalization" mapstructure:"unicodeNormalization"`
	SectionConcurrency   int  `toml:"sectionConcurrency" mapstructure:"sectionConcurrency"`
	FetchConcurrency     int  `toml:"fetchConcurrency" mapstructure:"fetchConcurrency"`
	MaxDepth             int  `toml:"maxDepth" mapstructure:"maxDepth"`

	RequestTimeout    int     `toml:"requestTimeout" mapstructure:"requestTimeout"`
	RetryAttempts     int     `toml:"retryAttempts" mapstructure:"retryAttempts"`
	RequestsPerSecond float64 `toml:"requestsPerSecond" mapstructure:"requestsPerSecond"`

	Output          string `toml:"output" mapstructure:"output"`
	MetricsTextfile string `toml:"metricsTextfile" mapstructure:"metricsTextfile"`

	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
}

// Validate checks the settings that do not depend on other packages.
// Folder mappings and exclude globs are validated where they are parsed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("baseUrl is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid baseUrl %q: %w", c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid baseUrl %q: expected http(s)://host[:port]", c.BaseURL)
	}
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("token is required")
	}

	if len(c.Libraries) > 0 && len(c.LibraryExcludes) > 0 {
		return errors.New("libraries and libraryExcludes are mutually exclusive")
	}

	if c.SectionConcurrency < 1 {
		return fmt.Errorf("sectionConcurrency must be at least 1, got %d", c.SectionConcurrency)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("fetchConcurrency must be at least 1, got %d", c.FetchConcurrency)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("maxDepth must be at least 1, got %d", c.MaxDepth)
	}
	if c.RequestTimeout < 0 || c.RetryAttempts < 0 || c.RequestsPerSecond < 0 {
		return errors.New("requestTimeout, retryAttempts and requestsPerSecond must not be negative")
	}

	switch strings.ToLower(c.Output) {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q (options: text, json, yaml)", c.Output)
	}

	return nil
}
