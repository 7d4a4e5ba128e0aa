// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pathcmp converts paths to a slash-separated form so glob patterns
// written with forward slashes apply to local paths on every platform.
package pathcmp

import (
	"path"
	"strings"
)

// ToSlash normalizes p for glob matching by:
// - Converting backslashes to forward slashes
// - Cleaning the path (removing . and .. where possible)
// - Keeping Windows drive roots as C:/
func ToSlash(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")

	if hasDriveLetter(p) {
		drive, rest := p[:2], p[2:]
		if rest == "" {
			return drive
		}
		rest = path.Clean(rest)
		if rest == "/" || rest == "." {
			return drive + "/"
		}
		return drive + rest
	}

	return path.Clean(p)
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
