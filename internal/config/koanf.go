// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/oshifeed/config.yaml",
	"/etc/oshifeed/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
// The dictionary and marker defaults are the curated production sets; deploys
// override them via YAML when the talent roster drifts.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8480,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			JWTSecret:       "",
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Path: "/data/oshifeed",
		},
		YouTube: YouTubeConfig{
			APIKey:        "",
			BaseURL:       "https://www.googleapis.com/youtube/v3",
			Timeout:       15 * time.Second,
			RatePerSecond: 5,
			RateBurst:     10,
		},
		Pool: PoolConfig{
			Window:   2 * time.Hour,
			PageSize: 15,
		},
		Live: LiveConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			LiveMarkers: []string{
				`"style":"LIVE"`,
				`{"text":" ライブ配信中"}`,
			},
			UpcomingMarkers: []string{
				`"isUpcoming":true`,
				"upcomingEventData",
			},
		},
		Recommend: RecommendConfig{
			Dictionary: []TagEntry{
				{Name: "雑談", Keywords: []string{"雑談", "凸待ち", "飲み枠", "作業用"}},
				{Name: "歌枠", Keywords: []string{"歌枠", "歌ってみた", "SINGING", "KARAOKE"}},
				{Name: "FPS", Keywords: []string{"VALORANT", "Apex", "オーバーウォッチ", "ストグラ"}},
				{Name: "原神", Keywords: []string{"原神", "Genshin", "テイワット", "螺旋"}},
				{Name: "3Dライブ", Keywords: []string{"3Dライブ", "3D配信", "記念配信"}},
				{Name: "ASMR", Keywords: []string{"ASMR", "バイノーラル", "囁き"}},
				{Name: "麻雀", Keywords: []string{"雀魂", "麻雀", "段位戦"}},
				{Name: "ホラー", Keywords: []string{"ホラーゲーム", "地獄銭湯", "影廊"}},
			},
			Markers: MarkerConfig{
				Short:   []string{"#shorts", "ショート"},
				Archive: []string{"アーカイブ", "配信", "生放送"},
				Clip:    []string{"切り抜き", "きりぬき"},
				SeriesExclusions: []string{
					"オーバーウォッチ2",
					"スプラトゥーン3",
					"ストリートファイター6",
					"鉄拳8",
				},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults, with type-safe unmarshaling via koanf
// struct tags.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"live.live_markers",
	"live.upcoming_markers",
	"recommend.markers.short",
	"recommend.markers.archive",
	"recommend.markers.clip",
	"recommend.markers.series_exclusions",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - YOUTUBE_API_KEY -> youtube.api_key
//   - POOL_WINDOW -> pool.window
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Security mappings
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"cors_origins":        "security.cors_origins",

		// Store mappings
		"store_path": "store.path",

		// YouTube mappings
		"youtube_api_key":         "youtube.api_key",
		"youtube_base_url":        "youtube.base_url",
		"youtube_timeout":         "youtube.timeout",
		"youtube_rate_per_second": "youtube.rate_per_second",
		"youtube_rate_burst":      "youtube.rate_burst",

		// Pool mappings
		"pool_window":    "pool.window",
		"pool_page_size": "pool.page_size",

		// Live checker mappings
		"live_timeout":    "live.timeout",
		"live_user_agent": "live.user_agent",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
