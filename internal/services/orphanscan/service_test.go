// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/plexorphans/internal/domain"
	"github.com/autobrr/plexorphans/pkg/pathmap"
)

func runService(t *testing.T, catalog domain.Catalog, fsys afero.Fs, settings Settings, opts ...Option) []domain.OrphanedFile {
	t.Helper()
	svc, err := NewService(catalog, fsys, settings, opts...)
	require.NoError(t, err)
	orphans, err := svc.Run(context.Background())
	require.NoError(t, err)
	return orphans
}

func TestRun_EmptySection(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"})

	orphans := runService(t, catalog, newMemFs(t, "/media/"), DefaultSettings())
	assert.Empty(t, orphans)
}

func TestRun_SectionWithoutLocations(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", nil, leaf("/media/Movie_1.mkv"))

	orphans := runService(t, catalog, newMemFs(t, "/media/Movie_1.mkv", "/media/Movie_2.mkv"), DefaultSettings())
	assert.Empty(t, orphans)
}

func TestRun_AllFilesIndexed(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"}, leaf("/media/Movie_1.mkv"))

	orphans := runService(t, catalog, newMemFs(t, "/media/Movie_1.mkv"), DefaultSettings())
	assert.Empty(t, orphans)
}

func TestRun_AllFilesIndexedMultipleLocations(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media", "/other/stuff"},
		leaf("/media/Movie_1.mkv"),
		leaf("/other/stuff/Movie_2.mkv"),
	)

	fsys := newMemFs(t, "/media/Movie_1.mkv", "/other/stuff/Movie_2.mkv")
	orphans := runService(t, catalog, fsys, DefaultSettings())
	assert.Empty(t, orphans)
}

func TestRun_FolderMapping(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"}, leaf("/media/Movie_1.mkv"))

	settings := DefaultSettings()
	settings.FolderMappings = []pathmap.FolderMapping{{From: "/media", To: "/tank/media"}}

	fsys := newMemFs(t, "/tank/media/Movie_1.mkv", "/tank/media/Movie_2.mkv")
	orphans := runService(t, catalog, fsys, settings)
	assert.Equal(t, []domain.OrphanedFile{{Section: "Stuff", Path: "/tank/media/Movie_2.mkv"}}, orphans)
}

func TestRun_FolderMappingFirstMatchWins(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media/movies"}, leaf("/media/movies/a.mkv"))

	settings := DefaultSettings()
	settings.FolderMappings = []pathmap.FolderMapping{
		{From: "/media", To: "/tank"},
		{From: "/media/movies", To: "/elsewhere"},
	}

	fsys := newMemFs(t, "/tank/movies/a.mkv", "/tank/movies/b.mkv", "/elsewhere/a.mkv")
	orphans := runService(t, catalog, fsys, settings)
	assert.Equal(t, []domain.OrphanedFile{{Section: "Stuff", Path: "/tank/movies/b.mkv"}}, orphans)
}

func TestRun_Excludes(t *testing.T) {
	t.Parallel()

	newCatalog := func() *fakeCatalog {
		c := newFakeCatalog()
		c.section("1", "Stuff", []string{"/media"}, leaf("/media/Movie_1.mkv"))
		return c
	}
	fsys := newMemFs(t, "/media/Movie_1.mkv", "/media/Movie_1.nfo")

	t.Run("without exclude", func(t *testing.T) {
		orphans := runService(t, newCatalog(), fsys, DefaultSettings())
		assert.Equal(t, []domain.OrphanedFile{{Section: "Stuff", Path: "/media/Movie_1.nfo"}}, orphans)
	})

	t.Run("with exclude", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Excludes = []string{"*.nfo"}
		orphans := runService(t, newCatalog(), fsys, settings)
		assert.Empty(t, orphans)
	})

	t.Run("with path exclude", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Excludes = []string{"/media/**/*.nfo"}
		orphans := runService(t, newCatalog(), fsys, settings)
		assert.Empty(t, orphans)
	})
}

func twoSectionCatalog() (*fakeCatalog, afero.Fs) {
	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/stuff"})
	catalog.section("2", "Things", []string{"/things"})
	return catalog, afero.NewMemMapFs()
}

func TestRun_LibraryFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		include  []string
		exclude  []string
		expected []domain.OrphanedFile
		skipped  []string
	}{
		{
			name: "no filter",
			expected: []domain.OrphanedFile{
				{Section: "Stuff", Path: "/stuff/orphan.mkv"},
				{Section: "Things", Path: "/things/orphan.mkv"},
			},
		},
		{
			name:     "include",
			include:  []string{"Stuff"},
			expected: []domain.OrphanedFile{{Section: "Stuff", Path: "/stuff/orphan.mkv"}},
			skipped:  []string{"Things"},
		},
		{
			name:     "exclude",
			exclude:  []string{"Things"},
			expected: []domain.OrphanedFile{{Section: "Stuff", Path: "/stuff/orphan.mkv"}},
			skipped:  []string{"Things"},
		},
		{
			name:     "include unknown",
			include:  []string{"Nothing"},
			expected: []domain.OrphanedFile{},
			skipped:  []string{"Stuff", "Things"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			catalog, _ := twoSectionCatalog()
			fsys := newMemFs(t, "/stuff/orphan.mkv", "/things/orphan.mkv")
			recorder := newFakeRecorder()

			settings := DefaultSettings()
			settings.Libraries = tt.include
			settings.LibraryExcludes = tt.exclude

			orphans := runService(t, catalog, fsys, settings, WithRecorder(recorder))
			assert.Equal(t, tt.expected, orphans)
			assert.Equal(t, tt.skipped, recorder.skipped)
			for _, title := range tt.skipped {
				assert.NotContains(t, recorder.scanned, title)
			}
		})
	}
}

func TestRun_LibraryFilterSkipsCatalogRequests(t *testing.T) {
	t.Parallel()

	catalog, fsys := twoSectionCatalog()
	settings := DefaultSettings()
	settings.Libraries = []string{"Stuff"}

	runService(t, catalog, fsys, settings)
	assert.Equal(t, 1, catalog.callCount(domain.SectionReference("1")))
	assert.Zero(t, catalog.callCount(domain.SectionReference("2")))
}

func TestNewService_LibrariesAndExcludesAreMutuallyExclusive(t *testing.T) {
	t.Parallel()

	settings := DefaultSettings()
	settings.Libraries = []string{"Stuff"}
	settings.LibraryExcludes = []string{"Things"}

	svc, err := NewService(newFakeCatalog(), afero.NewMemMapFs(), settings)
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestNewService_InvalidConfiguration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		catalog  domain.Catalog
		fsys     afero.Fs
		settings func(*Settings)
		contains string
	}{
		{
			name:     "nil catalog",
			fsys:     afero.NewMemMapFs(),
			contains: "catalog is required",
		},
		{
			name:     "nil filesystem",
			catalog:  newFakeCatalog(),
			contains: "filesystem is required",
		},
		{
			name:    "blank mapping side",
			catalog: newFakeCatalog(),
			fsys:    afero.NewMemMapFs(),
			settings: func(s *Settings) {
				s.FolderMappings = []pathmap.FolderMapping{{From: "/media", To: ""}}
			},
			contains: "'to' must not be blank",
		},
		{
			name:    "invalid glob",
			catalog: newFakeCatalog(),
			fsys:    afero.NewMemMapFs(),
			settings: func(s *Settings) {
				s.Excludes = []string{"[unterminated"}
			},
			contains: "invalid exclude pattern",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := DefaultSettings()
			if tt.settings != nil {
				tt.settings(&settings)
			}
			_, err := NewService(tt.catalog, tt.fsys, settings)
			require.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestNewService_AppliesDefaults(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newFakeCatalog(), afero.NewMemMapFs(), Settings{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSectionConcurrency, svc.settings.SectionConcurrency)
	assert.Equal(t, DefaultFetchConcurrency, svc.resolver.concurrency)
	assert.Equal(t, DefaultMaxDepth, svc.resolver.maxDepth)
}

func TestRun_TwoLevelNesting(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Shows", []string{"/tv"}, child("/library/metadata/10/children"))
	catalog.node("/library/metadata/10/children", child("/library/metadata/11/children"))
	catalog.node("/library/metadata/11/children", leaf("/tv/Show/Season 1/S01E01.mkv"))

	fsys := newMemFs(t, "/tv/Show/Season 1/S01E01.mkv", "/tv/Show/Season 1/S01E02.mkv")
	orphans := runService(t, catalog, fsys, DefaultSettings())
	assert.Equal(t, []domain.OrphanedFile{{Section: "Shows", Path: "/tv/Show/Season 1/S01E02.mkv"}}, orphans)
}

func TestRun_DuplicateIndexedPaths(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"},
		leaf("/media/Movie_1.mkv"),
		leaf("/media/Movie_1.mkv", "/media/Movie_1.mkv"),
	)

	orphans := runService(t, catalog, newMemFs(t, "/media/Movie_1.mkv"), DefaultSettings())
	assert.Empty(t, orphans)
}

func TestRun_UnicodeSpellings(t *testing.T) {
	t.Parallel()

	composed := "/media/Caf\u00e9.mkv"
	decomposed := "/media/Cafe\u0301.mkv"

	newCatalog := func() *fakeCatalog {
		catalog := newFakeCatalog()
		catalog.section("1", "Stuff", []string{"/media"}, leaf(composed))
		return catalog
	}

	t.Run("distinct by default", func(t *testing.T) {
		t.Parallel()

		fsys := newMemFs(t, composed, decomposed)
		orphans := runService(t, newCatalog(), fsys, DefaultSettings())
		assert.Equal(t, []domain.OrphanedFile{{Section: "Stuff", Path: decomposed}}, orphans)
	})

	t.Run("equivalent when normalized", func(t *testing.T) {
		t.Parallel()

		settings := DefaultSettings()
		settings.UnicodeNormalization = true

		orphans := runService(t, newCatalog(), newMemFs(t, decomposed), settings)
		assert.Empty(t, orphans)
	})
}

func TestRun_MultiPartLeaf(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"}, leaf("/media/Movie/cd1.avi", "/media/Movie/cd2.avi"))

	fsys := newMemFs(t, "/media/Movie/cd1.avi", "/media/Movie/cd2.avi", "/media/Movie/cd3.avi")
	orphans := runService(t, catalog, fsys, DefaultSettings())
	assert.Equal(t, []domain.OrphanedFile{{Section: "Stuff", Path: "/media/Movie/cd3.avi"}}, orphans)
}

func TestRun_MissingLocationIsIsolated(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/gone", "/media"})
	recorder := newFakeRecorder()

	orphans := runService(t, catalog, newMemFs(t, "/media/orphan.mkv"), DefaultSettings(), WithRecorder(recorder))
	assert.Equal(t, []domain.OrphanedFile{{Section: "Stuff", Path: "/media/orphan.mkv"}}, orphans)
	assert.Equal(t, 1, recorder.isolated[IsolatedLocation])
}

func TestRun_NotFoundReferenceIsIsolated(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"},
		child("/library/metadata/1/children"),
		child("/library/metadata/2/children"),
	)
	catalog.fail("/library/metadata/1/children", domain.ErrCatalogNotFound)
	catalog.node("/library/metadata/2/children", leaf("/media/b.mkv"))
	recorder := newFakeRecorder()

	// The missing subtree contributes nothing, so its file is reported.
	orphans := runService(t, catalog, newMemFs(t, "/media/a.mkv", "/media/b.mkv"), DefaultSettings(), WithRecorder(recorder))
	assert.Equal(t, []domain.OrphanedFile{{Section: "Stuff", Path: "/media/a.mkv"}}, orphans)
	assert.Equal(t, 1, recorder.isolated[IsolatedCatalog])
}

func TestRun_UnauthorizedIsFatal(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"}, leaf("/media/a.mkv"))
	catalog.section("2", "Things", []string{"/things"}, child("/library/metadata/2/children"))
	catalog.fail("/library/metadata/2/children", domain.ErrCatalogUnauthorized)
	recorder := newFakeRecorder()

	svc, err := NewService(catalog, newMemFs(t, "/media/b.mkv", "/things/c.mkv"), DefaultSettings(), WithRecorder(recorder))
	require.NoError(t, err)

	orphans, err := svc.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrCatalogUnauthorized)
	assert.Contains(t, err.Error(), `section "Things"`)
	assert.Nil(t, orphans)
	assert.Zero(t, recorder.runs)
	assert.False(t, IsCanceled(err))
}

func TestRun_ListSectionsErrorIsFatal(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.sectionsErr = domain.ErrCatalogUnauthorized

	svc, err := NewService(catalog, afero.NewMemMapFs(), DefaultSettings())
	require.NoError(t, err)

	_, err = svc.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrCatalogUnauthorized)
	assert.Contains(t, err.Error(), "list sections")
}

func TestRun_TransientErrorIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"}, child("/library/metadata/1/children"))
	catalog.fail("/library/metadata/1/children", boom)

	svc, err := NewService(catalog, newMemFs(t, "/media/a.mkv"), DefaultSettings())
	require.NoError(t, err)

	orphans, err := svc.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, orphans)
}

func TestRun_SectionRootNotFoundIsFatal(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"})
	catalog.fail(domain.SectionReference("1"), domain.ErrCatalogNotFound)

	svc, err := NewService(catalog, newMemFs(t, "/media/a.mkv", "/media/b.mkv"), DefaultSettings())
	require.NoError(t, err)

	// Reporting both files would be wrong: the index is unknown, not empty.
	orphans, err := svc.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrCatalogNotFound)
	assert.Contains(t, err.Error(), `section "Stuff"`)
	assert.Nil(t, orphans)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"}, child("/library/metadata/1/children"))
	catalog.node("/library/metadata/1/children", leaf("/media/a.mkv"))
	catalog.delay = time.Minute

	svc, err := NewService(catalog, newMemFs(t, "/media/a.mkv", "/media/b.mkv"), DefaultSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	orphans, err := svc.Run(ctx)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.Nil(t, orphans)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"})

	svc, err := NewService(catalog, afero.NewMemMapFs(), DefaultSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ConcurrentSectionsKeepCatalogOrder(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("3", "C", []string{"/c"})
	catalog.section("1", "A", []string{"/a"})
	catalog.section("2", "B", []string{"/b"})
	catalog.delay = 5 * time.Millisecond

	fsys := newMemFs(t, "/a/2.mkv", "/a/1.mkv", "/b/z.mkv", "/c/y.mkv", "/c/x.mkv")

	settings := DefaultSettings()
	settings.SectionConcurrency = 3

	orphans := runService(t, catalog, fsys, settings)
	assert.Equal(t, []domain.OrphanedFile{
		{Section: "C", Path: "/c/x.mkv"},
		{Section: "C", Path: "/c/y.mkv"},
		{Section: "A", Path: "/a/1.mkv"},
		{Section: "A", Path: "/a/2.mkv"},
		{Section: "B", Path: "/b/z.mkv"},
	}, orphans)
}

func TestRun_RecordsStatistics(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.section("1", "Stuff", []string{"/media"}, leaf("/media/a.mkv"), leaf("/media/not-on-disk.mkv"))
	recorder := newFakeRecorder()

	runService(t, catalog, newMemFs(t, "/media/a.mkv", "/media/b.mkv", "/media/c.mkv"), DefaultSettings(), WithRecorder(recorder))

	assert.Equal(t, [3]int{3, 2, 2}, recorder.scanned["Stuff"])
	assert.Equal(t, 1, recorder.runs)
	assert.Equal(t, 2, recorder.lastOrphans)
}
