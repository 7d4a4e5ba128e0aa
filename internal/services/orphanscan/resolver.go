// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/plexorphans/internal/domain"
)

// Resolver walks a section's catalog hierarchy and collects every file path
// the server has indexed for it.
type Resolver struct {
	catalog     domain.Catalog
	concurrency int
	maxDepth    int
	recorder    Recorder
}

// NewResolver creates a Resolver. Non-positive limits fall back to defaults.
func NewResolver(catalog domain.Catalog, concurrency, maxDepth int, recorder Recorder) *Resolver {
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Resolver{
		catalog:     catalog,
		concurrency: concurrency,
		maxDepth:    maxDepth,
		recorder:    recorder,
	}
}

// Resolve returns the deduplicated, unmapped paths indexed under the section
// with the given key, in lexicographic order.
//
// The hierarchy is walked one level at a time. Each level's references are
// listed concurrently. Below the section root, a reference that is not
// found, malformed, seen twice or deeper than the configured bound is skipped
// with a warning. Any failure of the section root listing itself, and any
// other catalog error, aborts the resolution: an empty index would report
// every local file of the section.
func (r *Resolver) Resolve(ctx context.Context, sectionKey string) ([]string, error) {
	root := domain.SectionReference(sectionKey)
	files := NewFileSet()

	seen := map[string]struct{}{root: {}}
	frontier := []string{root}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth > r.maxDepth {
			for _, ref := range frontier {
				r.isolate(ref, fmt.Errorf("%w: nesting deeper than %d levels", ErrMalformedCatalog, r.maxDepth))
			}
			break
		}

		next := make([][]string, len(frontier))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)

		for i, ref := range frontier {
			i, ref := i, ref
			g.Go(func() error {
				entries, err := r.catalog.ListEntries(gctx, ref)
				if err != nil {
					if ref == root {
						return fmt.Errorf("list section root %s: %w", ref, err)
					}
					if isolatedCatalogError(err) && gctx.Err() == nil {
						r.isolate(ref, err)
						return nil
					}
					return fmt.Errorf("list %s: %w", ref, err)
				}

				children := make([]string, 0)
				for _, entry := range entries {
					if entry.IsLeaf() {
						for _, part := range entry.Parts {
							if part != "" {
								files.Add(part)
							}
						}
						continue
					}
					if entry.Reference == "" {
						r.isolate(ref, fmt.Errorf("%w: entry without reference or media", ErrMalformedCatalog))
						continue
					}
					children = append(children, entry.Reference)
				}

				next[i] = children
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		// Deduplicate in frontier order so warnings are deterministic.
		frontier = frontier[:0]
		for _, children := range next {
			for _, ref := range children {
				if _, dup := seen[ref]; dup {
					r.isolate(ref, fmt.Errorf("%w: reference visited more than once", ErrMalformedCatalog))
					continue
				}
				seen[ref] = struct{}{}
				frontier = append(frontier, ref)
			}
		}
	}

	return files.Sorted(), nil
}

func (r *Resolver) isolate(ref string, err error) {
	log.Warn().Err(err).Str("reference", ref).Msg("orphanscan: skipping catalog reference")
	r.recorder.IsolatedError(IsolatedCatalog)
}

// isolatedCatalogError reports whether err only affects the reference that
// produced it.
func isolatedCatalogError(err error) bool {
	return errors.Is(err, domain.ErrCatalogNotFound) || errors.Is(err, domain.ErrCatalogMalformed)
}
