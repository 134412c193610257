// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics declares the Prometheus instrumentation surface (spec
// §2's fleet-health supporting concern), grounded on the style of the pack's
// promauto-declared metric vars (e.g. the doublezero telemetry services)
// rather than the teacher's, which wires Prometheus only through request
// middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kioskd_connected_devices",
		Help: "Number of devices currently holding a live session.",
	})
	ConnectedAdmins = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kioskd_connected_admins",
		Help: "Number of admin sessions currently connected.",
	})

	InboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kioskd_inbound_events_total",
		Help: "Events received from devices and admins, by event name.",
	}, []string{"event"})
	OutboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kioskd_outbound_events_total",
		Help: "Events pushed to devices and admins, by event name and delivery result.",
	}, []string{"event", "result"})

	PropagationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kioskd_propagation_latency_seconds",
		Help:    "Time from an assignment mutation to the resulting content:update push completing.",
		Buckets: prometheus.DefBuckets,
	})

	AssignmentConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kioskd_assignment_conflicts_total",
		Help: "Duplicate (device, playlist) assignment attempts rejected with 409.",
	})
	BroadcastConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kioskd_broadcast_conflicts_total",
		Help: "Broadcast start attempts rejected because one was already active.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kioskd_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	PersistenceBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kioskd_persistence_breaker_open",
		Help: "1 when the persistence circuit breaker is open, 0 otherwise.",
	})
)
