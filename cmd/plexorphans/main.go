// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
)

// Process exit codes.
const (
	exitClean   = 0
	exitOrphans = 1
	exitFailure = 2
)

// errOrphansFound is returned by the root command when the report is not
// empty. It is not printed.
var errOrphansFound = errors.New("orphaned files found")

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}

func execute(ctx context.Context, args []string, fsys afero.Fs, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(fsys)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitClean
	case errors.Is(err, errOrphansFound):
		return exitOrphans
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}
