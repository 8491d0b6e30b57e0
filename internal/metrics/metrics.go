// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package metrics provides Prometheus instrumentation for Oshifeed:
// API endpoint latency and throughput, shared video-pool refreshes,
// YouTube API usage, circuit breaker state, and profile writes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Video Pool Metrics
	PoolRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_pool_refresh_total",
			Help: "Total number of shared video pool refresh attempts",
		},
		[]string{"result"}, // "success", "error"
	)

	PoolReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_pool_reads_total",
			Help: "Total number of video pool reads",
		},
		[]string{"state"}, // "hit", "miss", "stale", "error"
	)

	PoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_pool_videos",
			Help: "Number of video records in the current pool snapshot",
		},
	)

	PoolAgeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_pool_age_seconds",
			Help: "Age of the current pool snapshot in seconds",
		},
	)

	// YouTube Client Metrics
	YouTubeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "youtube_requests_total",
			Help: "Total number of YouTube Data API requests",
		},
		[]string{"endpoint", "status"},
	)

	YouTubeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "youtube_request_duration_seconds",
			Help:    "YouTube Data API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Profile Store Metrics
	ProfileWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_writes_total",
			Help: "Total number of preference profile writes",
		},
		[]string{"kind", "result"}, // kind: "survey", "click"
	)

	ProfileWriteConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_write_conflicts_total",
			Help: "Total number of profile write transaction conflicts retried",
		},
	)

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation feed requests",
		},
		[]string{"result"}, // "success", "degraded", "failure"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Feed generation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// RecordAPIRequest records an API request with its outcome and duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordYouTubeRequest records a YouTube API call with its outcome and duration.
func RecordYouTubeRequest(endpoint, status string, duration time.Duration) {
	YouTubeRequestsTotal.WithLabelValues(endpoint, status).Inc()
	YouTubeRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
