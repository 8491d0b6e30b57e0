// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package recommend

import (
	"sort"

	"github.com/harukimoto/oshifeed/internal/profile"
)

// SelectedTopic is a topic chosen for one feed, tagged with how it was
// chosen.
type SelectedTopic struct {
	Name string
	Kind string
}

// selectTopics picks the topics for one feed: the top PreferenceTopics
// dictionary tags by profile score, then ExplorationTopics drawn uniformly
// from the remainder. Ties in the score ranking break on dictionary
// declaration order, so an empty profile yields the dictionary head.
//
// When the dictionary is smaller than the preference count every tag becomes
// a preference topic. Exploration slots that find an empty remainder are
// skipped rather than duplicating a preference topic: every returned topic
// is distinct.
func (e *Engine) selectTopics(p *profile.Profile) []SelectedTopic {
	names := e.dict.Names()

	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := p.Score(sorted[i]), p.Score(sorted[j])
		if si != sj {
			return si > sj
		}
		return e.dict.Order(sorted[i]) < e.dict.Order(sorted[j])
	})

	prefCount := e.cfg.PreferenceTopics
	if prefCount > len(sorted) {
		prefCount = len(sorted)
	}

	topics := make([]SelectedTopic, 0, prefCount+e.cfg.ExplorationTopics)
	for _, name := range sorted[:prefCount] {
		topics = append(topics, SelectedTopic{Name: name, Kind: KindPreference})
	}

	remainder := sorted[prefCount:]
	for i := 0; i < e.cfg.ExplorationTopics && len(remainder) > 0; i++ {
		pick := e.intn(len(remainder))
		topics = append(topics, SelectedTopic{Name: remainder[pick], Kind: KindExploration})
		remainder = append(append([]string(nil), remainder[:pick]...), remainder[pick+1:]...)
	}

	return topics
}
