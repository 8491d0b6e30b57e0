// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package recommend

// ScoredItem is one ranked video in a topic shortlist.
type ScoredItem struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Thumbnail    string  `json:"thumbnail"`
	ChannelTitle string  `json:"channelTitle"`
	Score        float64 `json:"score"`
}

// TopicGroup is one topic's shortlist in a feed response. Kind reports
// whether the topic came from the user's score ranking or the exploration
// draw.
type TopicGroup struct {
	Topic string       `json:"topic"`
	Kind  string       `json:"kind"`
	Items []ScoredItem `json:"items"`
}

// Topic group kinds.
const (
	KindPreference  = "preference"
	KindExploration = "exploration"
)
