// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package recommend implements the preference-adaptive feed engine: topic
// selection from the per-user score profile, composite scoring of the shared
// video pool, and the feedback loop that folds surveys and clicks back into
// the profile.
package recommend

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harukimoto/oshifeed/internal/config"
	"github.com/harukimoto/oshifeed/internal/feature"
	"github.com/harukimoto/oshifeed/internal/logging"
	"github.com/harukimoto/oshifeed/internal/metrics"
	"github.com/harukimoto/oshifeed/internal/models"
	"github.com/harukimoto/oshifeed/internal/profile"
)

// ProfileStore is the per-user profile persistence the engine depends on.
type ProfileStore interface {
	Load(ctx context.Context, userKey string) (*profile.Profile, error)
	Update(ctx context.Context, userKey string, mutate func(*profile.Profile) error) error
}

// ChannelRoster supplies a user's followed-channel set for the favorite
// boost.
type ChannelRoster interface {
	List(ctx context.Context, userKey string) ([]models.FavoriteChannel, error)
}

// VideoPool is the shared candidate pool the engine ranks from. The refill
// behind Videos uses the requesting user's roster.
type VideoPool interface {
	Videos(ctx context.Context, userKey string) ([]models.Video, time.Time, error)
	Lookup(id string) (models.Video, bool)
}

// VideoDetailer resolves full metadata for clicked videos that have already
// rotated out of the pool.
type VideoDetailer interface {
	VideosByID(ctx context.Context, ids []string) ([]models.Video, error)
}

// Engine produces per-topic shortlists and ingests feedback.
type Engine struct {
	dict     *Dictionary
	cfg      Config
	features feature.Config

	profiles ProfileStore
	channels ChannelRoster
	pool     VideoPool
	details  VideoDetailer

	log zerolog.Logger

	// rng drives the exploration draw; guarded because rand.Rand is not
	// goroutine safe.
	rngMu sync.Mutex
	rng   *rand.Rand

	// now is swappable for tests.
	now func() time.Time
}

// New creates an engine. The details client may be nil, in which case click
// bonuses fall back to pool lookups only.
func New(entries []config.TagEntry, cfg Config, features feature.Config, profiles ProfileStore, channels ChannelRoster, pool VideoPool, details VideoDetailer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dict, err := NewDictionary(entries)
	if err != nil {
		return nil, err
	}

	return &Engine{
		dict:     dict,
		cfg:      cfg,
		features: features,
		profiles: profiles,
		channels: channels,
		pool:     pool,
		details:  details,
		log:      logging.With().Str("component", "recommend").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // math/rand is fine for exploration draws
		now:      time.Now,
	}, nil
}

// Dictionary exposes the topic universe, for survey option listing.
func (e *Engine) Dictionary() *Dictionary {
	return e.dict
}

func (e *Engine) intn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

// GetRecommendations builds the feed for one user: topic selection from the
// profile, then a ranked shortlist per topic out of the shared pool.
//
// Upstream degradation never fails the whole feed. A pool or roster failure
// logs and yields empty shortlists; the topic structure is still returned so
// the caller can render a consistent layout.
func (e *Engine) GetRecommendations(ctx context.Context, userKey string) ([]TopicGroup, error) {
	start := e.now()

	p, err := e.profiles.Load(ctx, userKey)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	topics := e.selectTopics(p)

	pool, _, err := e.pool.Videos(ctx, userKey)
	if err != nil {
		e.log.Warn().Err(err).Msg("Pool unavailable, serving empty shortlists")
		pool = nil
	}

	favorites := make(map[string]struct{})
	if channels, err := e.channels.List(ctx, userKey); err != nil {
		e.log.Warn().Err(err).Msg("Roster unavailable, skipping favorite boost")
	} else {
		for _, ch := range channels {
			favorites[ch.ID] = struct{}{}
		}
	}

	now := e.now()
	groups := make([]TopicGroup, 0, len(topics))
	for _, topic := range topics {
		groups = append(groups, TopicGroup{
			Topic: topic.Name,
			Kind:  topic.Kind,
			Items: e.shortlist(pool, topic.Name, p, favorites, now),
		})
	}

	metrics.RecommendationsTotal.WithLabelValues("success").Inc()
	metrics.RecommendationDuration.Observe(e.now().Sub(start).Seconds())

	return groups, nil
}
