// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httphelpers

import (
	"io"
	"net/http"
	"strings"
)

// maxDrainBytes bounds how much of an unread body is discarded. A larger
// leftover closes the connection instead of returning it to the pool.
const maxDrainBytes = 1 << 20

// DrainAndClose discards what is left of a catalog response, up to
// maxDrainBytes, then closes the body so the keep-alive connection can serve
// the next listing. Safe on nil responses.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	resp.Body.Close()
}

// BodySnippet reads at most limit bytes of the body and returns them with
// runs of whitespace collapsed, for use in error messages. The body stays
// open; pair it with DrainAndClose.
func BodySnippet(resp *http.Response, limit int64) string {
	if resp == nil || resp.Body == nil || limit <= 0 {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, limit))
	return strings.Join(strings.Fields(string(data)), " ")
}
