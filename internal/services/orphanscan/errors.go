// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package orphanscan

import (
	"errors"

	"github.com/autobrr/plexorphans/internal/domain"
)

var (
	// ErrInvalidConfiguration is returned by NewService when the settings
	// cannot describe a valid run.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrLocationNotFound is returned when a section location does not exist
	// on the local filesystem.
	ErrLocationNotFound = errors.New("location not found")

	// ErrMalformedCatalog marks catalog content that cannot be traversed:
	// unparseable responses, reference cycles or runaway nesting.
	ErrMalformedCatalog = domain.ErrCatalogMalformed
)
