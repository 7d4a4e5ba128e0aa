// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/autobrr/plexorphans/internal/domain"
)

// writeReport renders orphans in the given format. Text output is one
// "<section>: <path>" line per orphan and nothing when there are none.
func writeReport(w io.Writer, format string, orphans []domain.OrphanedFile) error {
	if orphans == nil {
		orphans = []domain.OrphanedFile{}
	}

	switch format {
	case domain.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(orphans)
	case domain.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(orphans); err != nil {
			return err
		}
		return enc.Close()
	case domain.OutputText, "":
		for _, o := range orphans {
			if _, err := fmt.Fprintf(w, "%s: %s\n", o.Section, o.Path); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
