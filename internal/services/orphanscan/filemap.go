// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// FileSet is a thread-safe set of file paths.
// Membership is decided on the key form of a path; the first path added under
// a given key is the one reported back.
type FileSet struct {
	paths   map[string]string
	unicode bool
	mu      sync.RWMutex
}

// NewFileSet creates an empty FileSet keyed on the cleaned path. Names that
// differ only in Unicode normalization are distinct members.
func NewFileSet() *FileSet {
	return &FileSet{
		paths: make(map[string]string),
	}
}

// NewUnicodeFileSet creates an empty FileSet that also treats canonically
// equivalent names (NFC and NFD spellings) as the same member.
func NewUnicodeFileSet() *FileSet {
	s := NewFileSet()
	s.unicode = true
	return s
}

func newFileSet(unicode bool) *FileSet {
	if unicode {
		return NewUnicodeFileSet()
	}
	return NewFileSet()
}

func (s *FileSet) key(path string) string {
	k := normalizePath(path)
	if s.unicode && utf8.ValidString(k) {
		k = norm.NFC.String(k)
	}
	return k
}

// Add adds a path to the set.
func (s *FileSet) Add(path string) {
	key := s.key(path)
	s.mu.Lock()
	if _, ok := s.paths[key]; !ok {
		s.paths[key] = path
	}
	s.mu.Unlock()
}

func (s *FileSet) has(path string) bool {
	key := s.key(path)
	s.mu.RLock()
	_, ok := s.paths[key]
	s.mu.RUnlock()
	return ok
}

// Len returns the number of paths in the set.
func (s *FileSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// Merge adds every path of other to s, keyed the way s keys paths.
func (s *FileSet) Merge(other *FileSet) {
	if other == nil || other == s {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range other.paths {
		key := s.key(path)
		if _, ok := s.paths[key]; !ok {
			s.paths[key] = path
		}
	}
}

// Sorted returns the paths in lexicographic order.
func (s *FileSet) Sorted() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.paths))
	for _, path := range s.paths {
		out = append(out, path)
	}
	s.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Difference returns the paths of s that are not in other, sorted. Lookups
// use the key form of other.
func (s *FileSet) Difference(other *FileSet) []string {
	if other == nil {
		return s.Sorted()
	}
	if other == s {
		return []string{}
	}
	s.mu.RLock()
	other.mu.RLock()
	out := make([]string, 0)
	for _, path := range s.paths {
		if _, ok := other.paths[other.key(path)]; !ok {
			out = append(out, path)
		}
	}
	other.mu.RUnlock()
	s.mu.RUnlock()
	slices.Sort(out)
	return out
}

// normalizePath cleans a path for consistent comparison.
// Uses filepath.Clean (OS-specific separators).
// On Windows, we also case-fold to lower to match filesystem semantics and
// avoid false orphans from drive-letter/path casing differences.
func normalizePath(path string) string {
	p := filepath.Clean(path)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}
