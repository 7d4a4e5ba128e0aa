// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/plexorphans/internal/domain"
)

// libraryFilter decides which sections a run visits. Titles match exactly.
// At most one of include and exclude is non-empty.
type libraryFilter struct {
	include []string
	exclude []string

	includeSet map[string]struct{}
	excludeSet map[string]struct{}
}

func newLibraryFilter(include, exclude []string) libraryFilter {
	return libraryFilter{
		include:    include,
		exclude:    exclude,
		includeSet: toSet(include),
		excludeSet: toSet(exclude),
	}
}

func (f libraryFilter) allows(title string) bool {
	if len(f.includeSet) > 0 {
		_, ok := f.includeSet[title]
		return ok
	}
	_, skip := f.excludeSet[title]
	return !skip
}

// warnUnmatched logs every filter name that matches no section, with the
// closest section title when one is similar enough.
func (f libraryFilter) warnUnmatched(sections []domain.LibrarySection) {
	if len(f.include) == 0 && len(f.exclude) == 0 {
		return
	}

	titles := make([]string, 0, len(sections))
	known := make(map[string]struct{}, len(sections))
	for _, section := range sections {
		titles = append(titles, section.Title)
		known[section.Title] = struct{}{}
	}

	names := f.include
	if len(names) == 0 {
		names = f.exclude
	}
	for _, name := range names {
		if _, ok := known[name]; ok {
			continue
		}
		event := log.Warn().Str("library", name)
		if suggestion := closestTitle(name, titles); suggestion != "" {
			event = event.Str("suggestion", suggestion)
		}
		event.Msg("orphanscan: library filter matches no section")
	}
}

// closestTitle returns the best fuzzy match for name among titles, or "".
func closestTitle(name string, titles []string) string {
	ranks := fuzzy.RankFindFold(name, titles)
	if len(ranks) == 0 {
		// Also try the other direction so "Movies" suggests "Movie".
		for _, title := range titles {
			if fuzzy.MatchFold(title, name) {
				ranks = append(ranks, fuzzy.Rank{
					Source:   title,
					Target:   title,
					Distance: fuzzy.LevenshteinDistance(title, name),
				})
			}
		}
	}
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
