// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pathmap rewrites server-reported paths into local paths using
// ordered prefix rules. Matching is a plain byte prefix test with the first
// rule winning, so rule order is significant and must be preserved.
package pathmap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMapping is returned for folder mappings that cannot be parsed.
var ErrInvalidMapping = errors.New("invalid folder mapping")

// FolderMapping rewrites paths starting with From to start with To instead.
type FolderMapping struct {
	From string
	To   string
}

// ParseFolderMapping parses "from:to". The split happens on the first colon,
// so the replacement side may itself contain colons.
func ParseFolderMapping(raw string) (FolderMapping, error) {
	partition := strings.IndexByte(raw, ':')
	if partition == -1 {
		return FolderMapping{}, fmt.Errorf("%w: must contain colon (:) separating 'from' path from 'to' path: %q", ErrInvalidMapping, raw)
	}

	from := raw[:partition]
	if strings.TrimSpace(from) == "" {
		return FolderMapping{}, fmt.Errorf("%w: 'from' must not be blank: %q", ErrInvalidMapping, raw)
	}
	to := raw[partition+1:]
	if strings.TrimSpace(to) == "" {
		return FolderMapping{}, fmt.Errorf("%w: 'to' must not be blank: %q", ErrInvalidMapping, raw)
	}

	return FolderMapping{From: from, To: to}, nil
}

// ParseFolderMappings parses every mapping, keeping their order.
func ParseFolderMappings(raw []string) ([]FolderMapping, error) {
	mappings := make([]FolderMapping, 0, len(raw))
	for _, r := range raw {
		m, err := ParseFolderMapping(r)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// String renders the mapping in its "from:to" configuration form.
func (m FolderMapping) String() string {
	return m.From + ":" + m.To
}

// Mapper applies an ordered list of folder mappings. The zero value maps
// every path to itself.
type Mapper struct {
	mappings []FolderMapping
}

// NewMapper creates a mapper. Mappings with an empty side are rejected.
func NewMapper(mappings []FolderMapping) (*Mapper, error) {
	for i, m := range mappings {
		if m.From == "" || m.To == "" {
			return nil, fmt.Errorf("%w: mapping %d has an empty side: %q", ErrInvalidMapping, i, m.String())
		}
	}
	return &Mapper{mappings: append([]FolderMapping(nil), mappings...)}, nil
}

// Map applies the first mapping whose From is a prefix of path. The
// remainder after the prefix is kept verbatim. Unmatched paths are returned
// unchanged.
func (m *Mapper) Map(path string) string {
	if m == nil {
		return path
	}
	for _, mapping := range m.mappings {
		if strings.HasPrefix(path, mapping.From) {
			return mapping.To + path[len(mapping.From):]
		}
	}
	return path
}
