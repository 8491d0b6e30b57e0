// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/harukimoto/oshifeed/internal/feature"
	"github.com/harukimoto/oshifeed/internal/metrics"
	"github.com/harukimoto/oshifeed/internal/models"
	"github.com/harukimoto/oshifeed/internal/profile"
)

// ErrUnknownTopic is returned by feedback ingestion when a submitted topic is
// not in the dictionary. Callers can treat it as a client error.
var ErrUnknownTopic = errors.New("unknown topic")

// SubmitSurvey ingests an explicit topic survey: each chosen topic gains the
// survey bonus, the interest set is replaced wholesale, and the survey
// timestamp is stamped. The whole update is one atomic profile write.
func (e *Engine) SubmitSurvey(ctx context.Context, userKey string, topics []string) error {
	if len(topics) == 0 {
		return fmt.Errorf("survey must choose at least one topic")
	}
	seen := make(map[string]struct{}, len(topics))
	chosen := make([]string, 0, len(topics))
	for _, topic := range topics {
		if !e.dict.Contains(topic) {
			return fmt.Errorf("%w: survey topic %q", ErrUnknownTopic, topic)
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		chosen = append(chosen, topic)
	}

	now := e.now()
	err := e.profiles.Update(ctx, userKey, func(p *profile.Profile) error {
		for _, topic := range chosen {
			p.AddScore(topic, e.cfg.SurveyTagBonus)
		}
		p.Interests = chosen
		p.LastSurveyAt = &now
		return nil
	})
	if err != nil {
		metrics.ProfileWritesTotal.WithLabelValues("survey", "error").Inc()
		return err
	}

	metrics.ProfileWritesTotal.WithLabelValues("survey", "success").Inc()
	e.log.Debug().Str("user", userKey).Strs("topics", chosen).Msg("Survey ingested")
	return nil
}

// RecordClick ingests a click on a recommended video. Every displayed topic
// is decremented (a multiset: a topic shown in several slots is decremented
// once per slot, floored at zero), then the clicked topic gains the click
// bonus. When the clicked video's metadata can be resolved, its derived
// format, length and series pseudo-tags gain additional bonuses.
//
// The profile mutation is one atomic write. Detail resolution failure is
// non-fatal: the base click update still applies.
func (e *Engine) RecordClick(ctx context.Context, userKey, clickedTopic string, displayedTopics []string, videoID string) error {
	if !e.dict.Contains(clickedTopic) {
		return fmt.Errorf("%w: clicked topic %q", ErrUnknownTopic, clickedTopic)
	}
	for _, topic := range displayedTopics {
		if !e.dict.Contains(topic) {
			return fmt.Errorf("%w: displayed topic %q", ErrUnknownTopic, topic)
		}
	}

	// Resolve details before the write so the mutate function stays pure.
	feats, haveDetails := e.clickedVideoFeatures(ctx, videoID)

	err := e.profiles.Update(ctx, userKey, func(p *profile.Profile) error {
		for _, topic := range displayedTopics {
			p.AddScore(topic, -e.cfg.DisplayDecrement)
		}
		p.AddScore(clickedTopic, e.cfg.ClickBonus)

		if haveDetails {
			p.AddScore(string(feats.Format), e.cfg.DetailFormatBonus)
			p.AddScore(string(feats.Length), e.cfg.DetailLengthBonus)
			if feats.Series == feature.FlagSeries {
				p.AddScore(string(feature.FlagSeries), e.cfg.DetailSeriesBonus)
			} else {
				p.AddScore(string(feature.FlagStandalone), e.cfg.DetailStandaloneBonus)
			}
		}
		return nil
	})
	if err != nil {
		metrics.ProfileWritesTotal.WithLabelValues("click", "error").Inc()
		return err
	}

	metrics.ProfileWritesTotal.WithLabelValues("click", "success").Inc()
	e.log.Debug().
		Str("user", userKey).
		Str("topic", clickedTopic).
		Bool("detail_bonuses", haveDetails).
		Msg("Click ingested")
	return nil
}

// clickedVideoFeatures resolves the clicked video's features, trying the
// pool snapshot first and falling back to a metadata fetch for videos that
// have rotated out. The bool reports whether resolution succeeded.
func (e *Engine) clickedVideoFeatures(ctx context.Context, videoID string) (feature.Features, bool) {
	if videoID == "" {
		return feature.Features{}, false
	}

	var v models.Video
	if pooled, ok := e.pool.Lookup(videoID); ok {
		v = pooled
	} else if e.details != nil {
		fetched, err := e.details.VideosByID(ctx, []string{videoID})
		if err != nil || len(fetched) == 0 {
			e.log.Warn().Err(err).Str("video_id", videoID).Msg("Click detail lookup failed, skipping pseudo-tag bonuses")
			return feature.Features{}, false
		}
		v = fetched[0]
	} else {
		return feature.Features{}, false
	}

	return feature.Extract(v.Title, v.DurationRaw, e.features), true
}
