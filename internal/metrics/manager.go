// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/plexorphans/internal/metrics/collector"
)

type Manager struct {
	registry *prometheus.Registry
	Scan     *collector.ScanCollector
	Catalog  *collector.CatalogCollector
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		registry: registry,
		Scan:     collector.NewScanCollector(registry),
		Catalog:  collector.NewCatalogCollector(registry),
	}

	log.Debug().Msg("Metrics manager initialized with scan and catalog collectors")
	return m
}

// WriteTextfile writes all metrics in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	log.Debug().Str("path", path).Msg("Metrics textfile written")
	return nil
}
