// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/plexorphans/internal/domain"
)

// sectionResult is what scanning one section produced.
type sectionResult struct {
	orphans []domain.OrphanedFile
	files   int
	indexed int
}

// scanSection enumerates the section's locations while resolving its
// catalog, then reports the local files the catalog does not know about.
func (s *Service) scanSection(ctx context.Context, section domain.LibrarySection) (sectionResult, error) {
	local := newFileSet(s.settings.UnicodeNormalization)
	var indexedRaw []string

	g, gctx := errgroup.WithContext(ctx)

	for _, location := range section.Locations {
		location := location
		g.Go(func() error {
			root := s.mapper.Map(location)
			files, err := s.enumerator.Enumerate(gctx, root)
			if err != nil {
				if isCancellation(err) {
					return err
				}
				log.Warn().Err(err).
					Str("section", section.Title).
					Str("location", root).
					Msg("orphanscan: skipping location")
				s.recorder.IsolatedError(IsolatedLocation)
				return nil
			}
			local.Merge(files)
			return nil
		})
	}

	g.Go(func() error {
		paths, err := s.resolver.Resolve(gctx, section.Key)
		if err != nil {
			return err
		}
		indexedRaw = paths
		return nil
	})

	if err := g.Wait(); err != nil {
		return sectionResult{}, err
	}

	indexed := newFileSet(s.settings.UnicodeNormalization)
	for _, p := range indexedRaw {
		indexed.Add(s.mapper.Map(p))
	}

	paths := local.Difference(indexed)
	orphans := make([]domain.OrphanedFile, 0, len(paths))
	for _, p := range paths {
		orphans = append(orphans, domain.OrphanedFile{Section: section.Title, Path: p})
	}

	return sectionResult{
		orphans: orphans,
		files:   local.Len(),
		indexed: indexed.Len(),
	}, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
