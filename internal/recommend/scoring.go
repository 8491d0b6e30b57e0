// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/harukimoto/oshifeed/internal/feature"
	"github.com/harukimoto/oshifeed/internal/models"
	"github.com/harukimoto/oshifeed/internal/profile"
)

// scoreVideo computes the composite score of one candidate under one topic.
// Factors, all additive:
//   - popularity: log10(views+1) scaled
//   - recency: linear decay to zero at the horizon
//   - topical affinity: the topic's accumulated profile score, scaled
//   - survey boost: flat, when the topic is a current survey interest
//   - format and length affinity: pseudo-tag profile scores, scaled
//   - favorite-channel boost: flat, dominates everything else
//   - clip penalty: flat negative for clip-marked titles
func (e *Engine) scoreVideo(v *models.Video, topic string, p *profile.Profile, favorites map[string]struct{}, now time.Time) float64 {
	score := math.Log10(float64(v.ViewCount)+1) * e.cfg.PopularityWeight

	ageDays := now.Sub(v.PublishedAt).Hours() / 24
	if remaining := e.cfg.RecencyHorizonDays - ageDays; remaining > 0 {
		score += remaining * e.cfg.RecencyWeight
	}

	score += float64(p.Score(topic)) * e.cfg.TopicWeight

	if p.HasInterest(topic) {
		score += e.cfg.SurveyBonus
	}

	feats := feature.Extract(v.Title, v.DurationRaw, e.features)
	score += float64(p.Score(string(feats.Format))) * e.cfg.FormatWeight
	score += float64(p.Score(string(feats.Length))) * e.cfg.LengthWeight

	if _, ok := favorites[v.ChannelID]; ok {
		score += e.cfg.FavoriteBonus
	}

	if feats.Clip {
		score -= e.cfg.ClipPenalty
	}

	return score
}

// shortlist filters the pool to the topic's keyword matches, scores them,
// and returns the top ShortlistSize descending. Shortlists for different
// topics are independent: a video matching several topics appears in each.
func (e *Engine) shortlist(pool []models.Video, topic string, p *profile.Profile, favorites map[string]struct{}, now time.Time) []ScoredItem {
	items := make([]ScoredItem, 0, e.cfg.ShortlistSize)

	for i := range pool {
		v := &pool[i]
		if !e.dict.Matches(topic, v.Title) {
			continue
		}
		items = append(items, ScoredItem{
			ID:           v.ID,
			Title:        v.Title,
			Thumbnail:    v.Thumbnail,
			ChannelTitle: v.ChannelTitle,
			Score:        e.scoreVideo(v, topic, p, favorites, now),
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if len(items) > e.cfg.ShortlistSize {
		items = items[:e.cfg.ShortlistSize]
	}
	return items
}
