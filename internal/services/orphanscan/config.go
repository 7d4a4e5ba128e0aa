// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"time"

	"github.com/autobrr/plexorphans/pkg/pathmap"
)

const (
	// DefaultSectionConcurrency keeps sections sequential so progress logs
	// follow catalog order.
	DefaultSectionConcurrency = 1

	// DefaultFetchConcurrency bounds in-flight catalog listings per section.
	DefaultFetchConcurrency = 4

	// DefaultMaxDepth bounds how far below a section root the resolver follows
	// intermediate references.
	DefaultMaxDepth = 16
)

// Settings holds everything a run needs besides the catalog and filesystem.
type Settings struct {
	// Libraries limits the run to the named sections. Mutually exclusive with
	// LibraryExcludes.
	Libraries []string

	// LibraryExcludes skips the named sections.
	LibraryExcludes []string

	// Excludes are glob patterns. Local files matching any of them are never
	// reported.
	Excludes []string

	// FolderMappings rewrite server-side path prefixes to local ones.
	FolderMappings []pathmap.FolderMapping

	// FollowSymlinks descends into symlinked directories. Cycles are detected
	// and broken.
	FollowSymlinks bool

	// UnicodeNormalization compares names in NFC form, so an NFD spelling on
	// disk matches an NFC spelling in the catalog. Off by default: two names
	// that differ only in normalization can be two distinct files.
	UnicodeNormalization bool

	SectionConcurrency int
	FetchConcurrency   int
	MaxDepth           int
}

// DefaultSettings returns settings with every knob at its default.
func DefaultSettings() Settings {
	return Settings{
		Libraries:          []string{},
		LibraryExcludes:    []string{},
		Excludes:           []string{},
		FollowSymlinks:     true,
		SectionConcurrency: DefaultSectionConcurrency,
		FetchConcurrency:   DefaultFetchConcurrency,
		MaxDepth:           DefaultMaxDepth,
	}
}

func (s Settings) withDefaults() Settings {
	if s.SectionConcurrency <= 0 {
		s.SectionConcurrency = DefaultSectionConcurrency
	}
	if s.FetchConcurrency <= 0 {
		s.FetchConcurrency = DefaultFetchConcurrency
	}
	if s.MaxDepth <= 0 {
		s.MaxDepth = DefaultMaxDepth
	}
	return s
}

// Recorder receives run statistics. The metrics collector satisfies it.
type Recorder interface {
	SectionSkipped(section string)
	SectionScanned(section string, files, indexed, orphans int)
	IsolatedError(kind string)
	RunCompleted(elapsed time.Duration, orphans int)
}

// Isolated error kinds passed to Recorder.IsolatedError.
const (
	IsolatedLocation = "location"
	IsolatedCatalog  = "catalog"
)

type nopRecorder struct{}

func (nopRecorder) SectionSkipped(string)                {}
func (nopRecorder) SectionScanned(string, int, int, int) {}
func (nopRecorder) IsolatedError(string)                 {}
func (nopRecorder) RunCompleted(time.Duration, int)      {}
