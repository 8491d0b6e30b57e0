// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package models defines the DTOs shared across Oshifeed subsystems: the API
// response envelope, the cached video record, and the favorite channel.
package models

import "time"

// Video is an enriched video metadata record as held in the shared pool.
//
// DurationRaw keeps the upstream ISO-8601-style duration string (e.g. "PT1H30M")
// untouched; semantic extraction happens in the feature package. Category is an
// upstream category id carried for future use.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Thumbnail    string    `json:"thumbnail"`
	ChannelTitle string    `json:"channel_title"`
	ChannelID    string    `json:"channel_id"`
	PublishedAt  time.Time `json:"published_at"`
	DurationRaw  string    `json:"duration_raw"`
	ViewCount    uint64    `json:"view_count"`
	Category     string    `json:"category,omitempty"`
}

// FavoriteChannel is a creator channel the user follows for recommendation
// purposes (a.k.a. "oshi"). Supplied by roster management; the engine only
// consumes the set of these per request.
type FavoriteChannel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}
