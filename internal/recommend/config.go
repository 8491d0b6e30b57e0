// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package recommend

import "fmt"

// Config holds the scoring weights and shortlist limits. The defaults are
// the tuned production values; they are exposed as a struct so tests can pin
// individual factors and deployments can rebalance without a code change.
type Config struct {
	// PopularityWeight multiplies log10(viewCount + 1).
	PopularityWeight float64

	// RecencyWeight multiplies the remaining days under RecencyHorizonDays.
	RecencyWeight float64

	// RecencyHorizonDays is the age in days beyond which recency contributes
	// nothing.
	RecencyHorizonDays float64

	// TopicWeight multiplies the profile score of the topic being scored.
	TopicWeight float64

	// SurveyBonus is the flat boost when the topic is among the latest
	// survey interests.
	SurveyBonus float64

	// FormatWeight and LengthWeight multiply the profile scores of the
	// video's format-class and length-bucket pseudo-tags.
	FormatWeight float64
	LengthWeight float64

	// FavoriteBonus is the flat boost for videos from followed channels.
	// Deliberately large so followed-channel content dominates the feed.
	FavoriteBonus float64

	// ClipPenalty is subtracted when the title carries a clip marker.
	ClipPenalty float64

	// PreferenceTopics is how many top-scored topics each feed shows.
	PreferenceTopics int

	// ExplorationTopics is how many random non-preference topics each feed
	// shows.
	ExplorationTopics int

	// ShortlistSize caps the ranked items per topic.
	ShortlistSize int

	// SurveyTagBonus is added to each topic chosen in a survey.
	SurveyTagBonus int

	// DisplayDecrement is subtracted from every displayed topic on a click,
	// floored at zero.
	DisplayDecrement int

	// ClickBonus is added to the clicked topic after the display decrement,
	// so the net effect on a topic displayed once is ClickBonus minus
	// DisplayDecrement.
	ClickBonus int

	// Detail bonuses reward the clicked video's derived pseudo-tags when the
	// metadata lookup succeeds.
	DetailFormatBonus     int
	DetailLengthBonus     int
	DetailSeriesBonus     int
	DetailStandaloneBonus int
}

// DefaultConfig returns the production scoring configuration.
func DefaultConfig() Config {
	return Config{
		PopularityWeight:   5.0,
		RecencyWeight:      1.5,
		RecencyHorizonDays: 30,
		TopicWeight:        0.5,
		SurveyBonus:        50,
		FormatWeight:       0.3,
		LengthWeight:       0.2,
		FavoriteBonus:      200,
		ClipPenalty:        100,

		PreferenceTopics:  3,
		ExplorationTopics: 1,
		ShortlistSize:     4,

		SurveyTagBonus:   10,
		DisplayDecrement: 1,
		ClickBonus:       21,

		DetailFormatBonus:     15,
		DetailLengthBonus:     10,
		DetailSeriesBonus:     15,
		DetailStandaloneBonus: 10,
	}
}

// Validate checks the configuration for values that would break ranking.
func (c Config) Validate() error {
	if c.PreferenceTopics < 1 {
		return fmt.Errorf("preference topics must be at least 1, got %d", c.PreferenceTopics)
	}
	if c.ExplorationTopics < 0 {
		return fmt.Errorf("exploration topics must not be negative, got %d", c.ExplorationTopics)
	}
	if c.ShortlistSize < 1 {
		return fmt.Errorf("shortlist size must be at least 1, got %d", c.ShortlistSize)
	}
	if c.RecencyHorizonDays < 0 {
		return fmt.Errorf("recency horizon must not be negative, got %f", c.RecencyHorizonDays)
	}
	if c.DisplayDecrement < 0 {
		return fmt.Errorf("display decrement must not be negative, got %d", c.DisplayDecrement)
	}
	return nil
}
