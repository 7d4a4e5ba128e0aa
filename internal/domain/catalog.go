// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"context"
	"errors"
	"net/url"
)

// Failure classes surfaced by a Catalog implementation.
var (
	// ErrCatalogUnauthorized aborts the whole run; every later call would fail the same way.
	ErrCatalogUnauthorized = errors.New("catalog: unauthorized")
	// ErrCatalogNotFound marks a reference that no longer exists. The enclosing subtree is skipped.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogMalformed marks a response that cannot be interpreted. The enclosing subtree is skipped.
	ErrCatalogMalformed = errors.New("catalog: malformed response")
)

// LibrarySection is one configured library as reported by the media server.
type LibrarySection struct {
	Key       string
	Title     string
	Locations []string
}

// CatalogEntry is a node of the server's hierarchical listing.
//
// Parts is non-nil only for leaves (entries that carry media). An empty but
// non-nil Parts is still a leaf, it just has no files on disk.
type CatalogEntry struct {
	Reference string
	Parts     []string
}

// IsLeaf reports whether the entry carries physical file parts directly.
func (e CatalogEntry) IsLeaf() bool {
	return e.Parts != nil
}

// OrphanedFile is a file on disk that the server has not indexed.
type OrphanedFile struct {
	Section string `json:"section" yaml:"section"`
	Path    string `json:"path" yaml:"path"`
}

// Catalog is the subset of the media server API needed to reconcile libraries.
type Catalog interface {
	ListSections(ctx context.Context) ([]LibrarySection, error)
	ListEntries(ctx context.Context, ref string) ([]CatalogEntry, error)
}

// SectionReference returns the listing reference for a section's top-level items.
func SectionReference(sectionKey string) string {
	return "/library/sections/" + url.PathEscape(sectionKey) + "/all"
}
