// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package videocache maintains the shared pool of recent uploads from the
// followed channels. The pool is one immutable snapshot swapped atomically:
// readers never see a partial refill, and a refill in flight is shared by all
// concurrent requests through singleflight so the upstream API is hit at most
// once per expiry.
package videocache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/harukimoto/oshifeed/internal/logging"
	"github.com/harukimoto/oshifeed/internal/metrics"
	"github.com/harukimoto/oshifeed/internal/models"
	"github.com/harukimoto/oshifeed/internal/youtube"
)

// refillConcurrency bounds parallel per-channel upload fetches.
const refillConcurrency = 4

// refillTimeout bounds a detached refill so an upstream hang cannot pin the
// singleflight slot forever.
const refillTimeout = 2 * time.Minute

// ErrEmptyPool is returned when no snapshot exists and a refill produced no
// videos.
var ErrEmptyPool = errors.New("video pool is empty")

// ChannelLister supplies a user's followed channels, whose uploads feed the
// pool.
type ChannelLister interface {
	List(ctx context.Context, userKey string) ([]models.FavoriteChannel, error)
}

// Snapshot is an immutable view of the pool at one refill.
type Snapshot struct {
	Videos   []models.Video
	CachedAt time.Time
}

// Pool caches recent uploads from all followed channels for a fixed window.
type Pool struct {
	client   youtube.ClientInterface
	channels ChannelLister
	window   time.Duration
	pageSize int
	log      zerolog.Logger

	mu       sync.RWMutex
	snapshot *Snapshot

	refill singleflight.Group

	// now is swappable for tests.
	now func() time.Time
}

// NewPool creates a pool over the given channel roster.
func NewPool(client youtube.ClientInterface, channels ChannelLister, window time.Duration, pageSize int) *Pool {
	return &Pool{
		client:   client,
		channels: channels,
		window:   window,
		pageSize: pageSize,
		log:      logging.With().Str("component", "videocache").Logger(),
		now:      time.Now,
	}
}

// current returns the live snapshot, nil before the first refill.
func (p *Pool) current() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

func (p *Pool) isFresh(s *Snapshot) bool {
	return s != nil && p.now().Sub(s.CachedAt) < p.window
}

// Videos returns the pooled videos and the snapshot timestamp, refilling from
// the requesting user's roster when the window has expired. The snapshot is
// one shared pool keyed only by the last refill, not by user. If a refill
// fails but a stale snapshot exists, the stale data is served so an upstream
// outage degrades freshness instead of availability.
func (p *Pool) Videos(ctx context.Context, userKey string) ([]models.Video, time.Time, error) {
	if s := p.current(); p.isFresh(s) {
		metrics.PoolReadsTotal.WithLabelValues("hit").Inc()
		metrics.PoolAgeSeconds.Set(p.now().Sub(s.CachedAt).Seconds())
		return s.Videos, s.CachedAt, nil
	}

	result, err, _ := p.refill.Do("refill", func() (interface{}, error) {
		// Another goroutine may have refilled while we waited on the flight.
		if s := p.current(); p.isFresh(s) {
			return s, nil
		}
		// The refill is detached from the requesting context: once started
		// it completes and commits even if the request is abandoned, since
		// the snapshot benefits every later request.
		refillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refillTimeout)
		defer cancel()
		return p.doRefill(refillCtx, userKey)
	})
	if err != nil {
		if s := p.current(); s != nil {
			metrics.PoolReadsTotal.WithLabelValues("stale").Inc()
			p.log.Warn().Err(err).Time("cached_at", s.CachedAt).Msg("Refill failed, serving stale pool")
			return s.Videos, s.CachedAt, nil
		}
		metrics.PoolReadsTotal.WithLabelValues("error").Inc()
		return nil, time.Time{}, err
	}

	s := result.(*Snapshot)
	metrics.PoolReadsTotal.WithLabelValues("miss").Inc()
	return s.Videos, s.CachedAt, nil
}

// Lookup finds a pooled video by ID. The bool reports whether it was found.
func (p *Pool) Lookup(id string) (models.Video, bool) {
	s := p.current()
	if s == nil {
		return models.Video{}, false
	}
	for i := range s.Videos {
		if s.Videos[i].ID == id {
			return s.Videos[i], true
		}
	}
	return models.Video{}, false
}

// Invalidate drops the snapshot so the next read refills. Used when the
// roster changes, since the pool contents are defined by roster membership.
func (p *Pool) Invalidate() {
	p.mu.Lock()
	p.snapshot = nil
	p.mu.Unlock()
}

// doRefill fetches recent uploads from every channel in the user's roster and
// swaps in a new snapshot. Individual channel failures are logged and
// skipped; the refill only fails when it would produce an empty pool.
func (p *Pool) doRefill(ctx context.Context, userKey string) (*Snapshot, error) {
	start := p.now()

	channels, err := p.channels.List(ctx, userKey)
	if err != nil {
		metrics.PoolRefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(channels) == 0 {
		metrics.PoolRefreshTotal.WithLabelValues("error").Inc()
		return nil, ErrEmptyPool
	}

	var idsMu sync.Mutex
	var videoIDs []string
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refillConcurrency)
	for _, ch := range channels {
		g.Go(func() error {
			ids, err := p.client.RecentUploads(gctx, ch.ID, p.pageSize)
			if err != nil {
				// One broken channel must not empty the whole feed.
				p.log.Warn().Err(err).Str("channel_id", ch.ID).Msg("Skipping channel during refill")
				idsMu.Lock()
				failed++
				idsMu.Unlock()
				return nil
			}
			idsMu.Lock()
			videoIDs = append(videoIDs, ids...)
			idsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.PoolRefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(videoIDs) == 0 {
		metrics.PoolRefreshTotal.WithLabelValues("error").Inc()
		return nil, ErrEmptyPool
	}

	videos, err := p.client.VideosByID(ctx, videoIDs)
	if err != nil {
		metrics.PoolRefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	snapshot := &Snapshot{
		Videos:   videos,
		CachedAt: p.now(),
	}
	p.mu.Lock()
	p.snapshot = snapshot
	p.mu.Unlock()

	metrics.PoolRefreshTotal.WithLabelValues("success").Inc()
	metrics.PoolSize.Set(float64(len(videos)))
	metrics.PoolAgeSeconds.Set(0)

	p.log.Info().
		Int("videos", len(videos)).
		Int("channels", len(channels)).
		Int("channels_failed", failed).
		Dur("took", p.now().Sub(start)).
		Msg("Video pool refreshed")

	return snapshot, nil
}
