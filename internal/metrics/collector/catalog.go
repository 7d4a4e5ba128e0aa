// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type CatalogCollector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

func NewCatalogCollector(r *prometheus.Registry) *CatalogCollector {
	m := &CatalogCollector{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plexorphans",
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Total number of catalog HTTP attempts by outcome",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plexorphans",
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Duration of catalog HTTP attempts",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	r.MustRegister(m.RequestsTotal)
	r.MustRegister(m.RequestDuration)
	return m
}

// ObserveRequest records a single HTTP attempt against the catalog.
func (m *CatalogCollector) ObserveRequest(outcome string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(elapsed.Seconds())
}
