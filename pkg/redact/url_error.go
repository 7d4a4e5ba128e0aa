// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package redact strips credentials from errors before they reach logs.
package redact

import (
	"errors"
	"net/url"
	"regexp"
)

// Redacted replaces sensitive query values.
const Redacted = "REDACTED"

var sensitiveParam = regexp.MustCompile(`(?i)\b(apikey|api_key|passkey|password|token|x-plex-token)=([^&\s"']+)`)

// URLString redacts sensitive query parameter values in a raw URL string.
func URLString(raw string) string {
	return sensitiveParam.ReplaceAllString(raw, "${1}="+Redacted)
}

// URLError redacts credentials found in *url.Error values.
// A direct *url.Error is returned as a copy with its URL redacted, so callers
// can still use errors.As. Wrapped errors keep their chain for errors.Is and
// get a redacted message.
func URLError(err error) error {
	if err == nil {
		return nil
	}

	if urlErr, ok := err.(*url.Error); ok {
		redacted := *urlErr
		redacted.URL = URLString(urlErr.URL)
		return &redacted
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &redactedError{msg: URLString(err.Error()), err: err}
	}

	return err
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
