/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint, and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewcal_api_requests_total",
		Help: "Total API requests",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crewcal_api_request_duration_seconds",
		Help:    "API request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crewcal_api_active_connections",
		Help: "In-flight API requests",
	})

	// ScheduleRunsTotal counts engine invocations by outcome.
	ScheduleRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewcal_schedule_runs_total",
		Help: "Scheduling engine invocations",
	}, []string{"outcome"})

	// ScheduleConflictsTotal counts validation failures by kind.
	ScheduleConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewcal_schedule_conflicts_total",
		Help: "Scheduling conflicts by kind",
	}, []string{"kind"})

	// OverrideUsesTotal counts bypassed safety rules by tag.
	OverrideUsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewcal_override_uses_total",
		Help: "Override escape hatches exercised",
	}, []string{"tag"})

	// DatabaseQueryDuration observes gorm operation latency.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crewcal_db_query_duration_seconds",
		Help:    "Database query duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts gorm operation failures.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewcal_db_errors_total",
		Help: "Database errors",
	}, []string{"operation", "kind"})

	// DatabaseConnectionsActive gauges the connection pool.
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crewcal_db_connections_active",
		Help: "Open database connections",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
