// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "github.com/autobrr/plexorphans/pkg/redact"

// RedactedStr replaces secrets such as the server access token wherever
// configuration is echoed back to the user.
const RedactedStr = "<redacted>"

// RedactString returns RedactedStr for any non-empty value.
func RedactString(s string) string {
	if len(s) == 0 {
		return ""
	}

	return RedactedStr
}

// Redacted returns a copy of the config safe for logging. A token embedded
// in the base URL query is masked too.
func (c Config) Redacted() Config {
	c.Token = RedactString(c.Token)
	c.BaseURL = redact.URLString(c.BaseURL)
	return c
}
