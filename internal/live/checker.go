// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package live implements the channel live-status heuristic. YouTube exposes
// no official "is this channel live" endpoint at reasonable quota cost, so
// the checker fetches the channel's /live page and pattern-matches the
// embedded player state: live iff a live marker appears and no upcoming
// marker does. Markers are configuration data since they track YouTube's
// page internals, not ours.
package live

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harukimoto/oshifeed/internal/config"
	"github.com/harukimoto/oshifeed/internal/logging"
)

// maxPageBytes bounds how much of the live page is read. The player state
// markers sit well within the first megabytes.
const maxPageBytes = 4 << 20

// Status is the result of a live check.
type Status struct {
	ChannelID string `json:"channelId"`
	IsLive    bool   `json:"isLive"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Checker fetches and pattern-matches channel live pages.
type Checker struct {
	httpClient      *http.Client
	baseURL         string
	userAgent       string
	liveMarkers     []string
	upcomingMarkers []string
	log             zerolog.Logger
}

// NewChecker creates a live checker from configuration.
func NewChecker(cfg *config.LiveConfig) *Checker {
	return &Checker{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:         "https://www.youtube.com",
		userAgent:       cfg.UserAgent,
		liveMarkers:     cfg.LiveMarkers,
		upcomingMarkers: cfg.UpcomingMarkers,
		log:             logging.With().Str("component", "live").Logger(),
	}
}

var (
	titlePattern     = regexp.MustCompile(`<meta name="title" content="([^"]*)"`)
	thumbnailPattern = regexp.MustCompile(`<link rel="image_src" href="([^"]*)"`)
)

// Check reports whether the channel is currently streaming. A page carrying
// an upcoming marker is a scheduled waiting room, not a live stream. Any
// fetch failure degrades to not-live: the heuristic is best-effort and an
// unreachable page never means the channel is broadcasting.
func (c *Checker) Check(ctx context.Context, channelID string) (*Status, error) {
	pageURL := fmt.Sprintf("%s/channel/%s/live", c.baseURL, channelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "ja")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("channel_id", channelID).Msg("Live page request failed, treating as not live")
		return &Status{ChannelID: channelID}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("channel_id", channelID).Msg("Live page returned non-OK status, treating as not live")
		return &Status{ChannelID: channelID}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		c.log.Warn().Err(err).Str("channel_id", channelID).Msg("Live page read failed, treating as not live")
		return &Status{ChannelID: channelID}, nil
	}

	return c.classify(channelID, string(body)), nil
}

// classify applies the marker heuristic to a fetched page body.
func (c *Checker) classify(channelID, page string) *Status {
	status := &Status{ChannelID: channelID}

	for _, marker := range c.upcomingMarkers {
		if strings.Contains(page, marker) {
			c.log.Debug().Str("channel_id", channelID).Str("marker", marker).Msg("Upcoming marker found, not live")
			return status
		}
	}

	live := false
	for _, marker := range c.liveMarkers {
		if strings.Contains(page, marker) {
			live = true
			break
		}
	}
	if !live {
		return status
	}

	status.IsLive = true
	if m := titlePattern.FindStringSubmatch(page); m != nil {
		status.Title = m[1]
	}
	if m := thumbnailPattern.FindStringSubmatch(page); m != nil {
		status.Thumbnail = m[1]
	}
	return status
}
