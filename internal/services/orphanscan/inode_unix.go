// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

//go:build !windows

package orphanscan

import (
	"io/fs"
	"syscall"
)

// fileIdentity returns the device and inode behind info. Filesystems without
// a syscall.Stat_t, such as afero's MemMapFs, report false.
func fileIdentity(info fs.FileInfo) (inodeKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return inodeKey{}, false
	}
	return inodeKey{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true
}
