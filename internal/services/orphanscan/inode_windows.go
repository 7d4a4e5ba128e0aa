// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

//go:build windows

package orphanscan

import "io/fs"

// fileIdentity is unavailable on Windows; directories are tracked by path.
func fileIdentity(fs.FileInfo) (inodeKey, bool) {
	return inodeKey{}, false
}
