// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/autobrr/plexorphans/internal/buildinfo"
	"github.com/autobrr/plexorphans/internal/config"
	"github.com/autobrr/plexorphans/internal/metrics"
	"github.com/autobrr/plexorphans/internal/plex"
	"github.com/autobrr/plexorphans/internal/services/orphanscan"
	"github.com/autobrr/plexorphans/pkg/pathmap"
)

type rootOptions struct {
	configPath string
	debug      int
}

// NewRootCommand builds the plexorphans command tree. Local files are read
// through fsys.
func NewRootCommand(fsys afero.Fs) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "plexorphans [flags] [LIBRARY...]",
		Short: "Find files in your Plex libraries which are not indexed by Plex",
		Long: `Find files in your Plex libraries which are not indexed by Plex.

Every file under a library's folders that Plex has not indexed is printed as
"<library>: <path>". The exit code is 0 when nothing was found, 1 when orphans
were found and 2 when the scan failed or was interrupted.

All libraries are scanned unless LIBRARY names are given.`,
		Version:       buildinfo.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts, fsys)
		},
	}

	f := cmd.Flags()
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.toml or its directory")
	cmd.PersistentFlags().CountVar(&opts.debug, "debug", "Increase log verbosity, repeat for request tracing")

	f.String("base-url", "", "Base URL of Plex server web interface (e.g., http://plex:32400/)")
	f.String("token", "", "Plex authentication token. See: https://support.plex.tv/articles/204059436-finding-an-authentication-token-x-plex-token/")
	f.StringArray("folder-mapping", nil, "Map a plex folder path to a local filesystem path (e.g., /media:/tank/media)")
	f.StringArrayP("exclude", "e", nil, "Glob pattern of files to ignore (e.g., /media/**/*.nfo, /music/**/cover.*)")
	f.StringArray("library-exclude", nil, "Name of a library to skip, cannot be combined with LIBRARY arguments")
	f.Bool("follow-symlinks", true, "Descend into symlinked directories")
	f.Bool("unicode-normalization", false, "Match file names that differ only in Unicode normalization (NFC/NFD)")
	f.Int("section-concurrency", orphanscan.DefaultSectionConcurrency, "Number of libraries scanned at once")
	f.Int("fetch-concurrency", orphanscan.DefaultFetchConcurrency, "Concurrent Plex requests per library")
	f.Int("max-depth", orphanscan.DefaultMaxDepth, "Maximum catalog nesting followed below a library")
	f.Int("request-timeout", 30, "Per-request timeout in seconds")
	f.Int("retry-attempts", 3, "Retries for transient Plex errors")
	f.Float64("requests-per-second", 0, "Limit Plex request rate, 0 disables")
	f.StringP("output", "o", "text", "Report format: text, json or yaml")
	f.String("metrics-textfile", "", "Write run metrics in Prometheus text format to this file")
	f.String("log-level", "", "Log level: ERROR, WARN, INFO, DEBUG or TRACE")
	f.String("log-path", "", "Also write logs to this file")

	cmd.AddCommand(newVersionCommand(), newConfigCommand())

	return cmd
}

func runScan(cmd *cobra.Command, args []string, opts *rootOptions, fsys afero.Fs) error {
	appCfg, err := config.New(opts.configPath, config.WithFlags(cmd.Flags()))
	if err != nil {
		return err
	}
	cfg := appCfg.Config
	if len(args) > 0 {
		cfg.Libraries = args
	}

	closer, err := appCfg.InitLogger(cmd.ErrOrStderr(), opts.debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	mappings, err := pathmap.ParseFolderMappings(cfg.FolderMappings)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Debug().Interface("config", cfg.Redacted()).Msg("starting scan")

	m := metrics.NewManager()

	client, err := plex.NewClient(plex.Config{
		BaseURL:           cfg.BaseURL,
		Token:             cfg.Token,
		Timeout:           time.Duration(cfg.RequestTimeout) * time.Second,
		RetryAttempts:     cfg.RetryAttempts,
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         buildinfo.UserAgent,
		Version:           cfg.Version,
		Observer:          m.Catalog,
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	svc, err := orphanscan.NewService(client, fsys, orphanscan.Settings{
		Libraries:            cfg.Libraries,
		LibraryExcludes:      cfg.LibraryExcludes,
		Excludes:             cfg.Excludes,
		FolderMappings:       mappings,
		FollowSymlinks:       cfg.FollowSymlinks,
		UnicodeNormalization: cfg.UnicodeNormalization,
		SectionConcurrency:   cfg.SectionConcurrency,
		FetchConcurrency:     cfg.FetchConcurrency,
		MaxDepth:             cfg.MaxDepth,
	}, orphanscan.WithRecorder(m.Scan))
	if err != nil {
		return err
	}

	orphans, runErr := svc.Run(cmd.Context())

	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error().Err(err).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics textfile")
		}
	}

	if runErr != nil {
		if orphanscan.IsCanceled(runErr) {
			return errors.New("scan interrupted, no report produced")
		}
		return runErr
	}

	if err := writeReport(cmd.OutOrStdout(), strings.ToLower(cfg.Output), orphans); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if len(orphans) > 0 {
		return errOrphansFound
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				data, err := buildinfo.JSON()
				if err != nil {
					return err
				}
				cmd.Println(string(data))
				return nil
			}
			cmd.Print(buildinfo.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration file operations",
	}

	var dir string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, created, err := config.WriteDefaultConfig(dir)
			if err != nil {
				return err
			}
			if !created {
				cmd.Printf("Config file already exists: %s\n", path)
				return nil
			}
			cmd.Printf("Config file written: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&dir, "dir", "", "Directory to write config.toml into (default: user config dir)")

	cmd.AddCommand(initCmd)
	return cmd
}
