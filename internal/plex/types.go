// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package plex

// response wraps every JSON payload returned by the server.
type response[T any] struct {
	MediaContainer T `json:"MediaContainer"`
}

type sectionList struct {
	Directory []sectionHeader `json:"Directory"`
}

type sectionHeader struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Location []location `json:"Location"`
}

type location struct {
	Path string `json:"path"`
}

type metadataList struct {
	Metadata []metadata `json:"Metadata"`
}

// metadata is a catalog item. Media is present only on playable items; shows,
// seasons, artists and albums carry a key pointing at their children instead.
type metadata struct {
	Key   string  `json:"key"`
	Media []media `json:"Media"`
}

type media struct {
	Part []part `json:"Part"`
}

type part struct {
	File string `json:"file"`
}
