// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package feature turns raw video metadata into semantic features: duration
// in whole minutes, a format class, a length bucket, and a series/standalone
// flag. All functions are pure; marker words and exclusion lists come in as
// configuration so classification stays independently testable.
package feature

import (
	"regexp"
	"strconv"
	"strings"
)

// FormatClass classifies a video's production format.
type FormatClass string

const (
	// FormatShort is short-form vertical content (<= 1 minute with a short marker).
	FormatShort FormatClass = "short"
	// FormatArchive is a stream archive or broadcast recording.
	FormatArchive FormatClass = "archive"
	// FormatVideo is regular edited video content.
	FormatVideo FormatClass = "video"
)

// LengthBucket classifies a video's runtime.
type LengthBucket string

const (
	// LengthUnder1H is under 60 minutes.
	LengthUnder1H LengthBucket = "under-1h"
	// Length1HTo2H is 60 to 119 minutes.
	Length1HTo2H LengthBucket = "1h-2h"
	// Length2HPlus is 120 minutes or longer.
	Length2HPlus LengthBucket = "2h-plus"
)

// SeriesFlag marks whether a title looks like part of a numbered series.
type SeriesFlag string

const (
	// FlagSeries is a numbered series episode.
	FlagSeries SeriesFlag = "series"
	// FlagStandalone is a one-off video.
	FlagStandalone SeriesFlag = "standalone"
)

// Config holds the declarative marker sets driving classification.
// Marker matching is case-insensitive substring containment.
type Config struct {
	// ShortMarkers flag short-form content when the video is also <= 1 minute.
	ShortMarkers []string `json:"short_markers"`

	// ArchiveMarkers flag stream archives and broadcast recordings.
	ArchiveMarkers []string `json:"archive_markers"`

	// ClipMarkers flag re-cut clip compilations for the noise penalty.
	ClipMarkers []string `json:"clip_markers"`

	// SeriesExclusions lists franchise names whose numeric tokens are part of
	// the game title, not an episode number (e.g. オーバーウォッチ2).
	SeriesExclusions []string `json:"series_exclusions"`
}

// DefaultConfig returns the built-in marker sets.
func DefaultConfig() Config {
	return Config{
		ShortMarkers:   []string{"#shorts", "ショート"},
		ArchiveMarkers: []string{"アーカイブ", "配信", "生放送"},
		ClipMarkers:    []string{"切り抜き", "きりぬき"},
		SeriesExclusions: []string{
			"オーバーウォッチ2",
			"スプラトゥーン3",
			"ストリートファイター6",
			"鉄拳8",
		},
	}
}

// Features is the extracted semantic view of one video.
type Features struct {
	// Minutes is the whole-minute runtime (seconds discarded).
	Minutes int

	// Format is the format class per ClassifyFormat.
	Format FormatClass

	// Length is the runtime bucket per BucketLength.
	Length LengthBucket

	// Series is the series/standalone flag per DetectSeries.
	Series SeriesFlag

	// Clip reports whether the title carries a clip marker.
	Clip bool
}

// PseudoTags returns the score-namespace entries derived from these features.
// Format classes, length buckets and series flags share the tag score
// namespace with explicit topics.
func (f Features) PseudoTags() []string {
	return []string{string(f.Format), string(f.Length), string(f.Series)}
}

// durationPattern matches ISO-8601-style durations of the shape
// PT[nH][nM][nS] with any subset of the three groups present.
var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDurationMinutes converts a raw duration string to whole minutes
// (hours*60 + minutes). Seconds are parsed but intentionally discarded.
// Input not matching the pattern, including the empty string, yields 0 as
// a defined fallback, not an error.
func ParseDurationMinutes(raw string) int {
	m := durationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}

	hours := atoiDefault(m[1])
	minutes := atoiDefault(m[2])

	return hours*60 + minutes
}

// atoiDefault parses a captured digit group, empty meaning 0.
func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ClassifyFormat returns the format class for a title and runtime.
// Priority order, first match wins: short, archive, video.
func ClassifyFormat(title string, minutes int, cfg Config) FormatClass {
	if minutes <= 1 && containsAnyFold(title, cfg.ShortMarkers) {
		return FormatShort
	}
	if containsAnyFold(title, cfg.ArchiveMarkers) {
		return FormatArchive
	}
	return FormatVideo
}

// BucketLength returns the runtime bucket for a whole-minute duration.
func BucketLength(minutes int) LengthBucket {
	switch {
	case minutes < 60:
		return LengthUnder1H
	case minutes < 120:
		return Length1HTo2H
	default:
		return Length2HPlus
	}
}

// seriesPattern matches numbering tokens: "#12", "Part 3", "Day2", "第4".
var seriesPattern = regexp.MustCompile(`(?i)(#\d+|(?:part|day|第)\s*[0-9０-９]+)`)

// DetectSeries reports whether a title looks like a numbered series episode.
// Titles naming an excluded franchise are treated as standalone because the
// franchise name itself carries the numeric token.
func DetectSeries(title string, cfg Config) SeriesFlag {
	if !seriesPattern.MatchString(title) {
		return FlagStandalone
	}
	if containsAnyFold(title, cfg.SeriesExclusions) {
		return FlagStandalone
	}
	return FlagSeries
}

// IsClip reports whether a title carries a clip/re-cut marker.
func IsClip(title string, cfg Config) bool {
	return containsAnyFold(title, cfg.ClipMarkers)
}

// Extract computes the full feature view for a title and raw duration.
func Extract(title, durationRaw string, cfg Config) Features {
	minutes := ParseDurationMinutes(durationRaw)
	return Features{
		Minutes: minutes,
		Format:  ClassifyFormat(title, minutes, cfg),
		Length:  BucketLength(minutes),
		Series:  DetectSeries(title, cfg),
		Clip:    IsClip(title, cfg),
	}
}

// containsAnyFold reports whether s contains any marker, case-insensitively.
func containsAnyFold(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
