// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package videocache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harukimoto/oshifeed/internal/models"
)

// mockYouTube implements youtube.ClientInterface with canned uploads per
// channel and call counting.
type mockYouTube struct {
	mu         sync.Mutex
	uploads    map[string][]string
	videos     map[string]models.Video
	uploadsErr map[string]error
	listCalls  int32
}

func (m *mockYouTube) RecentUploads(ctx context.Context, channelID string, max int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.uploadsErr[channelID]; err != nil {
		return nil, err
	}
	ids := m.uploads[channelID]
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (m *mockYouTube) VideosByID(ctx context.Context, ids []string) ([]models.Video, error) {
	atomic.AddInt32(&m.listCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type mockRoster struct {
	channels []models.FavoriteChannel
	err      error
	lastUser string
}

func (m *mockRoster) List(ctx context.Context, userKey string) ([]models.FavoriteChannel, error) {
	m.lastUser = userKey
	return m.channels, m.err
}

func newTestPool(yt *mockYouTube, roster *mockRoster) *Pool {
	return NewPool(yt, roster, 2*time.Hour, 15)
}

func basicMock() (*mockYouTube, *mockRoster) {
	yt := &mockYouTube{
		uploads: map[string][]string{
			"UCaaa": {"a1", "a2"},
			"UCbbb": {"b1"},
		},
		videos: map[string]models.Video{
			"a1": {ID: "a1", ChannelID: "UCaaa"},
			"a2": {ID: "a2", ChannelID: "UCaaa"},
			"b1": {ID: "b1", ChannelID: "UCbbb"},
		},
		uploadsErr: map[string]error{},
	}
	roster := &mockRoster{channels: []models.FavoriteChannel{
		{ID: "UCaaa", Name: "A"},
		{ID: "UCbbb", Name: "B"},
	}}
	return yt, roster
}

func TestVideosRefillsOnFirstRead(t *testing.T) {
	yt, roster := basicMock()
	pool := newTestPool(yt, roster)

	videos, cachedAt, err := pool.Videos(context.Background(), "haruka")
	if err != nil {
		t.Fatalf("Videos failed: %v", err)
	}
	if len(videos) != 3 {
		t.Errorf("expected 3 pooled videos, got %d", len(videos))
	}
	if cachedAt.IsZero() {
		t.Error("expected non-zero snapshot time")
	}
	if roster.lastUser != "haruka" {
		t.Errorf("refill used roster of %q, want haruka", roster.lastUser)
	}
}

func TestVideosWithinWindowUsesCache(t *testing.T) {
	yt, roster := basicMock()
	pool := newTestPool(yt, roster)

	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("second read failed: %v", err)
	}

	if calls := atomic.LoadInt32(&yt.listCalls); calls != 1 {
		t.Errorf("expected 1 upstream fetch within window, got %d", calls)
	}
}

func TestVideosRefillsAfterWindow(t *testing.T) {
	yt, roster := basicMock()
	pool := newTestPool(yt, roster)

	base := time.Now()
	pool.now = func() time.Time { return base }

	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("first read failed: %v", err)
	}

	pool.now = func() time.Time { return base.Add(2*time.Hour + time.Minute) }
	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("post-expiry read failed: %v", err)
	}

	if calls := atomic.LoadInt32(&yt.listCalls); calls != 2 {
		t.Errorf("expected refill after window expiry, got %d fetches", calls)
	}
}

func TestConcurrentReadsShareOneRefill(t *testing.T) {
	yt, roster := basicMock()
	pool := newTestPool(yt, roster)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
				t.Errorf("Videos failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := atomic.LoadInt32(&yt.listCalls); calls != 1 {
		t.Errorf("expected exactly 1 shared refill, got %d", calls)
	}
}

func TestChannelFailureDegradesNotFails(t *testing.T) {
	yt, roster := basicMock()
	yt.uploadsErr["UCbbb"] = errors.New("channel deleted")
	pool := newTestPool(yt, roster)

	videos, _, err := pool.Videos(context.Background(), "haruka")
	if err != nil {
		t.Fatalf("Videos failed: %v", err)
	}
	if len(videos) != 2 {
		t.Errorf("expected videos from surviving channel only, got %d", len(videos))
	}
	for _, v := range videos {
		if v.ChannelID != "UCaaa" {
			t.Errorf("unexpected video from failed channel: %+v", v)
		}
	}
}

func TestAllChannelsFailingWithNoSnapshotErrors(t *testing.T) {
	yt, roster := basicMock()
	yt.uploadsErr["UCaaa"] = errors.New("down")
	yt.uploadsErr["UCbbb"] = errors.New("down")
	pool := newTestPool(yt, roster)

	if _, _, err := pool.Videos(context.Background(), "haruka"); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}
}

func TestRefillFailureServesStale(t *testing.T) {
	yt, roster := basicMock()
	pool := newTestPool(yt, roster)

	base := time.Now()
	pool.now = func() time.Time { return base }
	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("first read failed: %v", err)
	}

	// Expire the window, then break the upstream entirely.
	pool.now = func() time.Time { return base.Add(3 * time.Hour) }
	yt.mu.Lock()
	yt.uploadsErr["UCaaa"] = errors.New("down")
	yt.uploadsErr["UCbbb"] = errors.New("down")
	yt.mu.Unlock()

	videos, cachedAt, err := pool.Videos(context.Background(), "haruka")
	if err != nil {
		t.Fatalf("expected stale serve, got error: %v", err)
	}
	if len(videos) != 3 {
		t.Errorf("expected stale snapshot videos, got %d", len(videos))
	}
	if !cachedAt.Equal(base) {
		t.Errorf("expected original snapshot time, got %v", cachedAt)
	}
}

func TestEmptyRosterErrors(t *testing.T) {
	yt, _ := basicMock()
	pool := newTestPool(yt, &mockRoster{})

	if _, _, err := pool.Videos(context.Background(), "haruka"); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool for empty roster, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	yt, roster := basicMock()
	pool := newTestPool(yt, roster)

	if _, ok := pool.Lookup("a1"); ok {
		t.Error("expected miss before first refill")
	}

	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("Videos failed: %v", err)
	}

	v, ok := pool.Lookup("a1")
	if !ok || v.ID != "a1" {
		t.Errorf("expected hit for a1, got ok=%v v=%+v", ok, v)
	}
	if _, ok := pool.Lookup("missing"); ok {
		t.Error("expected miss for unknown ID")
	}
}

// slowYouTube honors context cancellation and delays each call, for tests
// where a refill outlives the request that started it.
type slowYouTube struct {
	*mockYouTube
	delay time.Duration
}

func (s *slowYouTube) RecentUploads(ctx context.Context, channelID string, max int) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	return s.mockYouTube.RecentUploads(ctx, channelID, max)
}

func (s *slowYouTube) VideosByID(ctx context.Context, ids []string) ([]models.Video, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	return s.mockYouTube.VideosByID(ctx, ids)
}

func TestAbandonedRequestRefillStillCommits(t *testing.T) {
	yt, roster := basicMock()
	slow := &slowYouTube{mockYouTube: yt, delay: 30 * time.Millisecond}
	pool := NewPool(slow, roster, 2*time.Hour, 15)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	defer cancel()

	videos, _, err := pool.Videos(ctx, "haruka")
	if err != nil {
		t.Fatalf("refill must complete despite the abandoned request, got: %v", err)
	}
	if len(videos) != 3 {
		t.Errorf("expected the full refill to commit, got %d videos", len(videos))
	}
	if pool.current() == nil {
		t.Error("expected a committed snapshot after the request was abandoned")
	}
}

func TestInvalidateForcesRefill(t *testing.T) {
	yt, roster := basicMock()
	pool := newTestPool(yt, roster)

	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	pool.Invalidate()
	if _, _, err := pool.Videos(context.Background(), "haruka"); err != nil {
		t.Fatalf("post-invalidate read failed: %v", err)
	}

	if calls := atomic.LoadInt32(&yt.listCalls); calls != 2 {
		t.Errorf("expected refill after invalidate, got %d fetches", calls)
	}
}
