// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harukimoto/oshifeed/internal/config"
	"github.com/harukimoto/oshifeed/internal/metrics"
)

// NewRouter assembles the Chi router with the full middleware stack and all
// API routes. The health and metrics endpoints skip authentication; everything
// under /api/v1 requires it.
func NewRouter(handler *Handler, security *config.SecurityConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-Key"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(metricsMiddleware)

	r.Get("/api/v1/health", handler.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(security.RateLimitReqs, security.RateLimitWindow))
		r.Use(authMiddleware(security))

		r.Get("/recommendations", handler.HandleGetRecommendations)
		r.Post("/survey", handler.HandleSubmitSurvey)
		r.Post("/click", handler.HandleRecordClick)
		r.Get("/profile", handler.HandleGetProfile)
		r.Delete("/profile", handler.HandleResetProfile)
		r.Get("/tags", handler.HandleGetTags)

		r.Get("/channels", handler.HandleListChannels)
		r.Post("/channels", handler.HandleAddChannel)
		r.Get("/channels/{channelID}", handler.HandleGetChannel)
		r.Delete("/channels/{channelID}", handler.HandleDeleteChannel)

		r.Get("/live/{channelID}", handler.HandleLiveStatus)
	})

	return r
}

// requestIDMiddleware assigns an X-Request-ID when the client did not send
// one, and echoes it in the response for correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set("X-Request-ID", requestID)
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records per-route request counts and latencies. The Chi
// route pattern is used instead of the raw path so path parameters do not
// explode the label cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordAPIRequest(r.Method, endpoint, ww.Status(), time.Since(start))
	})
}
