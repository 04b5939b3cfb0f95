// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "switchboard"

// Metrics holds the router's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	webhooks        *prometheus.CounterVec
	webhookDuration *prometheus.HistogramVec
	routes          *prometheus.CounterVec
	directory       *prometheus.CounterVec
	dials           *prometheus.CounterVec
	screening       *prometheus.CounterVec
	voicemail       *prometheus.CounterVec
	panics          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook requests by endpoint and HTTP status.",
		}, []string{"endpoint", "status"}),
		webhookDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_duration_seconds",
			Help:      "Time to produce a webhook response.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Greeting routing decisions.",
		}, []string{"route"}),
		directory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_lookups_total",
			Help:      "Directory lookups by outcome (match, ambiguous, no_match, no_input).",
		}, []string{"outcome"}),
		dials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_dials_total",
			Help:      "Outbound team dials by team and result.",
		}, []string{"team", "result"}),
		screening: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screening_total",
			Help:      "Call screening outcomes by team.",
		}, []string{"team", "outcome"}),
		voicemail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voicemail_total",
			Help:      "Voicemail progress by stage.",
		}, []string{"stage"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Recovered handler panics by endpoint.",
		}, []string{"endpoint"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.webhooks, m.webhookDuration, m.routes, m.directory,
		m.dials, m.screening, m.voicemail, m.panics,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordWebhook(endpoint, status string, d time.Duration) {
	m.webhooks.WithLabelValues(endpoint, status).Inc()
	m.webhookDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) RecordRoute(route string) {
	m.routes.WithLabelValues(route).Inc()
}

func (m *Metrics) RecordDirectoryLookup(outcome string) {
	m.directory.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDial(team, result string) {
	m.dials.WithLabelValues(team, result).Inc()
}

func (m *Metrics) RecordScreening(team, outcome string) {
	m.screening.WithLabelValues(team, outcome).Inc()
}

func (m *Metrics) RecordVoicemail(stage string) {
	m.voicemail.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordPanic(endpoint string) {
	m.panics.WithLabelValues(endpoint).Inc()
}
