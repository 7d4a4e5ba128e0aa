// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/plexorphans/internal/domain"
	"github.com/autobrr/plexorphans/pkg/pathmap"
)

// Service finds files under the server's library locations that the server
// has not indexed.
type Service struct {
	catalog    domain.Catalog
	settings   Settings
	mapper     *pathmap.Mapper
	enumerator *Enumerator
	resolver   *Resolver
	filter     libraryFilter
	recorder   Recorder
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithRecorder sets the Recorder that receives run statistics.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService validates settings and creates a Service. Configuration
// problems are reported as ErrInvalidConfiguration before any I/O happens.
func NewService(catalog domain.Catalog, fsys afero.Fs, settings Settings, opts ...Option) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", ErrInvalidConfiguration)
	}
	if fsys == nil {
		return nil, fmt.Errorf("%w: filesystem is required", ErrInvalidConfiguration)
	}
	if len(settings.Libraries) > 0 && len(settings.LibraryExcludes) > 0 {
		return nil, fmt.Errorf("%w: libraries and library excludes are mutually exclusive, specify one or the other", ErrInvalidConfiguration)
	}

	mapper, err := pathmap.NewMapper(settings.FolderMappings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	excludes, err := NewExcludeRules(settings.Excludes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	settings = settings.withDefaults()

	s := &Service{
		catalog:  catalog,
		settings: settings,
		mapper:   mapper,
		filter:   newLibraryFilter(settings.Libraries, settings.LibraryExcludes),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.enumerator = NewEnumerator(fsys, excludes, settings.FollowSymlinks)
	s.resolver = NewResolver(catalog, settings.FetchConcurrency, settings.MaxDepth, s.recorder)

	return s, nil
}

// Run scans every selected section and returns the orphaned files grouped
// by section in catalog order, each group sorted by path.
//
// Fatal catalog errors (unauthorized, unreachable after retries) and
// cancellation abort the run and return no partial result.
func (s *Service) Run(ctx context.Context) ([]domain.OrphanedFile, error) {
	start := time.Now()

	sections, err := s.catalog.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	s.filter.warnUnmatched(sections)

	results := make([][]domain.OrphanedFile, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.SectionConcurrency)

	for i, section := range sections {
		i, section := i, section
		if !s.filter.allows(section.Title) {
			log.Debug().Str("section", section.Title).Msgf("Skipping %s...", section.Title)
			s.recorder.SectionSkipped(section.Title)
			continue
		}

		g.Go(func() error {
			log.Debug().Str("section", section.Title).Msgf("Checking %s...", section.Title)

			res, err := s.scanSection(gctx, section)
			if err != nil {
				return fmt.Errorf("section %q: %w", section.Title, err)
			}

			log.Debug().
				Str("section", section.Title).
				Int("files", res.files).
				Int("indexed", res.indexed).
				Msgf("Found %d orphan(s)", len(res.orphans))
			s.recorder.SectionScanned(section.Title, res.files, res.indexed, len(res.orphans))

			results[i] = res.orphans
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancellation that raced the last section must still abort.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orphans := make([]domain.OrphanedFile, 0)
	for _, r := range results {
		orphans = append(orphans, r...)
	}

	elapsed := time.Since(start)
	s.recorder.RunCompleted(elapsed, len(orphans))
	log.Info().
		Int("sections", len(sections)).
		Int("orphans", len(orphans)).
		Dur("elapsed", elapsed).
		Msg("orphanscan: run completed")

	return orphans, nil
}

// IsCanceled reports whether err from Run came from cancellation rather than
// a catalog failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
