// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package httphelpers holds small HTTP utilities shared by API clients.
package httphelpers

import "strings"

// NormalizeBasePath trims whitespace and trailing slashes and ensures a
// leading slash. The root path normalizes to "".
func NormalizeBasePath(basePath string) string {
	p := strings.TrimRight(strings.TrimSpace(basePath), "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// JoinBasePath appends suffix to a base path, as used when a server is
// reachable below a reverse-proxy prefix (e.g. http://host/plex).
func JoinBasePath(basePath, suffix string) string {
	base := NormalizeBasePath(basePath)
	suffix = strings.TrimLeft(suffix, "/")
	if suffix == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + suffix
}
