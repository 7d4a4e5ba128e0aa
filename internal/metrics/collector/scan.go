// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ScanCollector struct {
	SectionsTotal       *prometheus.CounterVec
	FilesEnumerated     *prometheus.CounterVec
	IndexedPaths        *prometheus.CounterVec
	OrphansTotal        *prometheus.CounterVec
	IsolatedErrorsTotal *prometheus.CounterVec
	LastRunDuration     prometheus.Gauge
	LastRunOrphans      prometheus.Gauge
}

func NewScanCollector(r *prometheus.Registry) *ScanCollector {
	m := &ScanCollector{
		SectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexorphans",
			Subsystem: "scan",
			Name:      "sections_total",
			Help:      "Total number of library sections seen, by result (scanned or skipped)",
		}, []string{"section", "result"}),
		FilesEnumerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexorphans",
			Subsystem: "scan",
			Name:      "files_enumerated_total",
			Help:      "Total number of files found on disk under section locations",
		}, []string{"section"}),
		IndexedPaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexorphans",
			Subsystem: "scan",
			Name:      "indexed_paths_total",
			Help:      "Total number of file paths resolved from the server catalog",
		}, []string{"section"}),
		OrphansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexorphans",
			Subsystem: "scan",
			Name:      "orphans_total",
			Help:      "Total number of files on disk not indexed by the server",
		}, []string{"section"}),
		IsolatedErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexorphans",
			Subsystem: "scan",
			Name:      "isolated_errors_total",
			Help:      "Errors confined to a location or catalog subtree that did not abort the run",
		}, []string{"kind"}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plexorphans",
			Subsystem: "scan",
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last completed run",
		}),
		LastRunOrphans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plexorphans",
			Subsystem: "scan",
			Name:      "last_run_orphans",
			Help:      "Number of orphans reported by the last completed run",
		}),
	}

	r.MustRegister(m.SectionsTotal)
	r.MustRegister(m.FilesEnumerated)
	r.MustRegister(m.IndexedPaths)
	r.MustRegister(m.OrphansTotal)
	r.MustRegister(m.IsolatedErrorsTotal)
	r.MustRegister(m.LastRunDuration)
	r.MustRegister(m.LastRunOrphans)
	return m
}

func (m *ScanCollector) SectionSkipped(section string) {
	m.SectionsTotal.With(prometheus.Labels{"section": section, "result": "skipped"}).Inc()
}

func (m *ScanCollector) SectionScanned(section string, files, indexed, orphans int) {
	m.SectionsTotal.With(prometheus.Labels{"section": section, "result": "scanned"}).Inc()
	m.FilesEnumerated.WithLabelValues(section).Add(float64(files))
	m.IndexedPaths.WithLabelValues(section).Add(float64(indexed))
	m.OrphansTotal.WithLabelValues(section).Add(float64(orphans))
}

func (m *ScanCollector) IsolatedError(kind string) {
	m.IsolatedErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *ScanCollector) RunCompleted(elapsed time.Duration, orphans int) {
	m.LastRunDuration.Set(elapsed.Seconds())
	m.LastRunOrphans.Set(float64(orphans))
}
