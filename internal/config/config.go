// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package config provides layered application configuration: built-in
// defaults, an optional YAML file, then environment variables, loaded through
// Koanf v2. The tag dictionary and classifier marker sets live here as
// deployment-time data, per the rule that classification logic stays pure and
// its magic literals stay in configuration.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Store     StoreConfig     `koanf:"store"`
	YouTube   YouTubeConfig   `koanf:"youtube"`
	Pool      PoolConfig      `koanf:"pool"`
	Live      LiveConfig      `koanf:"live"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// AuthMode is "jwt" (default) or "none" for local development.
	AuthMode string `koanf:"auth_mode"`

	// JWTSecret is the HS256 secret for bearer token verification.
	// Required when AuthMode is "jwt".
	JWTSecret string `koanf:"jwt_secret"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// StoreConfig holds the embedded key-value store settings.
type StoreConfig struct {
	// Path is the BadgerDB data directory. Empty means in-memory (tests).
	Path string `koanf:"path"`
}

// YouTubeConfig holds external video source settings.
type YouTubeConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RatePerSecond and RateBurst bound outbound API calls for quota safety.
	RatePerSecond float64 `koanf:"rate_per_second"`
	RateBurst     int     `koanf:"rate_burst"`
}

// PoolConfig holds shared video pool settings.
type PoolConfig struct {
	// Window is the validity window; the pool is refreshed from the external
	// source at most once per window.
	Window time.Duration `koanf:"window"`

	// PageSize is the per-channel uploads page size on refill.
	PageSize int `koanf:"page_size"`
}

// LiveConfig holds live-status checker settings.
type LiveConfig struct {
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`

	// LiveMarkers and UpcomingMarkers drive the page pattern match: live iff
	// any live marker is present and no upcoming marker is.
	LiveMarkers     []string `koanf:"live_markers"`
	UpcomingMarkers []string `koanf:"upcoming_markers"`
}

// TagEntry is one dictionary tag with its search keywords.
type TagEntry struct {
	Name     string   `koanf:"name"`
	Keywords []string `koanf:"keywords"`
}

// MarkerConfig holds the classifier marker sets.
type MarkerConfig struct {
	Short            []string `koanf:"short"`
	Archive          []string `koanf:"archive"`
	Clip             []string `koanf:"clip"`
	SeriesExclusions []string `koanf:"series_exclusions"`
}

// RecommendConfig holds the deployment-configurable parts of the
// recommendation engine: the tag dictionary (declaration order is the
// tie-break for equal scores) and the classifier markers.
type RecommendConfig struct {
	Dictionary []TagEntry   `koanf:"dictionary"`
	Markers    MarkerConfig `koanf:"markers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}

	switch c.Security.AuthMode {
	case "jwt":
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret is required when auth_mode is jwt")
		}
	case "none":
	default:
		return fmt.Errorf("security.auth_mode %q unsupported (jwt, none)", c.Security.AuthMode)
	}

	if c.Pool.Window <= 0 {
		return fmt.Errorf("pool.window must be positive")
	}
	if c.Pool.PageSize < 1 || c.Pool.PageSize > 50 {
		return fmt.Errorf("pool.page_size %d out of range (1-50)", c.Pool.PageSize)
	}

	if c.YouTube.BaseURL == "" {
		return fmt.Errorf("youtube.base_url is required")
	}
	if c.YouTube.RatePerSecond <= 0 {
		return fmt.Errorf("youtube.rate_per_second must be positive")
	}
	if c.YouTube.RateBurst < 1 {
		return fmt.Errorf("youtube.rate_burst must be at least 1")
	}

	if len(c.Recommend.Dictionary) == 0 {
		return fmt.Errorf("recommend.dictionary must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Recommend.Dictionary))
	for _, entry := range c.Recommend.Dictionary {
		if entry.Name == "" {
			return fmt.Errorf("recommend.dictionary entry with empty name")
		}
		if len(entry.Keywords) == 0 {
			return fmt.Errorf("recommend.dictionary tag %q has no keywords", entry.Name)
		}
		if _, dup := seen[entry.Name]; dup {
			return fmt.Errorf("recommend.dictionary tag %q declared twice", entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}

	return nil
}
