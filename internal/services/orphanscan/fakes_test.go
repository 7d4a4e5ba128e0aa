// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/plexorphans/internal/domain"
)

// fakeCatalog is an in-memory domain.Catalog.
type fakeCatalog struct {
	mu          sync.Mutex
	sections    []domain.LibrarySection
	sectionsErr error
	entries     map[string][]domain.CatalogEntry
	errs        map[string]error
	calls       map[string]int
	delay       time.Duration

	inFlight    int
	maxInFlight int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		entries: make(map[string][]domain.CatalogEntry),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

// section adds a section whose root listing is entries.
func (f *fakeCatalog) section(key, title string, locations []string, entries ...domain.CatalogEntry) {
	f.sections = append(f.sections, domain.LibrarySection{Key: key, Title: title, Locations: locations})
	f.entries[domain.SectionReference(key)] = entries
}

func (f *fakeCatalog) node(ref string, entries ...domain.CatalogEntry) {
	f.entries[ref] = entries
}

func (f *fakeCatalog) fail(ref string, err error) {
	f.errs[ref] = err
}

func (f *fakeCatalog) callCount(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ref]
}

func (f *fakeCatalog) ListSections(ctx context.Context) ([]domain.LibrarySection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.sectionsErr != nil {
		return nil, f.sectionsErr
	}
	return f.sections, nil
}

func (f *fakeCatalog) ListEntries(ctx context.Context, ref string) ([]domain.CatalogEntry, error) {
	f.mu.Lock()
	f.calls[ref]++
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.errs[ref]; err != nil {
		return nil, err
	}
	return f.entries[ref], nil
}

func leaf(parts ...string) domain.CatalogEntry {
	return domain.CatalogEntry{Reference: "/library/metadata/leaf", Parts: parts}
}

func child(ref string) domain.CatalogEntry {
	return domain.CatalogEntry{Reference: ref}
}

// newMemFs creates a MemMapFs holding the given files and directories.
// Paths ending in a separator are created as directories.
func newMemFs(t *testing.T, paths ...string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, p := range paths {
		p = filepath.FromSlash(p)
		if p[len(p)-1] == filepath.Separator {
			require.NoError(t, fsys.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, fsys.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(fsys, p, []byte("x"), 0o644))
	}
	return fsys
}

type fakeRecorder struct {
	mu          sync.Mutex
	skipped     []string
	scanned     map[string][3]int
	isolated    map[string]int
	runs        int
	lastOrphans int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		scanned:  make(map[string][3]int),
		isolated: make(map[string]int),
	}
}

func (r *fakeRecorder) SectionSkipped(section string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, section)
}

func (r *fakeRecorder) SectionScanned(section string, files, indexed, orphans int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanned[section] = [3]int{files, indexed, orphans}
}

func (r *fakeRecorder) IsolatedError(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.isolated[kind]++
}

func (r *fakeRecorder) RunCompleted(_ time.Duration, orphans int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.lastOrphans = orphans
}
