// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harukimoto/oshifeed/internal/config"
)

func testConfig(baseURL string) *config.YouTubeConfig {
	return &config.YouTubeConfig{
		APIKey:        "test-key",
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		RatePerSecond: 1000,
		RateBurst:     1000,
	}
}

func TestUploadsPlaylistID(t *testing.T) {
	tests := []struct {
		channelID string
		want      string
	}{
		{"UCabc123", "UUabc123"},
		{"UC", "UU"},
		{"PLalready-a-playlist", "PLalready-a-playlist"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := UploadsPlaylistID(tt.channelID); got != tt.want {
			t.Errorf("UploadsPlaylistID(%q) = %q, want %q", tt.channelID, got, tt.want)
		}
	}
}

func TestRecentUploads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlistItems" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("playlistId") != "UUabc123" {
			t.Errorf("expected uploads playlist UUabc123, got %s", q.Get("playlistId"))
		}
		if q.Get("maxResults") != "15" {
			t.Errorf("expected maxResults 15, got %s", q.Get("maxResults"))
		}
		if q.Get("key") != "test-key" {
			t.Errorf("expected api key on request, got %s", q.Get("key"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"snippet": {"resourceId": {"videoId": "vid-1"}}},
				{"snippet": {"resourceId": {"videoId": "vid-2"}}},
				{"snippet": {"resourceId": {"videoId": ""}}}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	ids, err := client.RecentUploads(context.Background(), "UCabc123", 15)
	if err != nil {
		t.Fatalf("RecentUploads failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "vid-1" || ids[1] != "vid-2" {
		t.Errorf("unexpected IDs: %v", ids)
	}
}

func TestVideosByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("part") != "snippet,contentDetails,statistics" {
			t.Errorf("unexpected part param: %s", q.Get("part"))
		}
		if q.Get("id") != "vid-1,vid-2" {
			t.Errorf("unexpected id param: %s", q.Get("id"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": "vid-1",
					"snippet": {
						"title": "【歌枠】深夜のKARAOKE",
						"channelId": "UCabc123",
						"channelTitle": "Akane Ch.",
						"publishedAt": "2026-08-29T12:00:00Z",
						"categoryId": "10",
						"thumbnails": {"medium": {"url": "https://img.example/1.jpg"}}
					},
					"contentDetails": {"duration": "PT1H30M"},
					"statistics": {"viewCount": "123456"}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	videos, err := client.VideosByID(context.Background(), []string{"vid-1", "vid-2"})
	if err != nil {
		t.Fatalf("VideosByID failed: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video (missing IDs dropped), got %d", len(videos))
	}

	v := videos[0]
	if v.ID != "vid-1" || v.ChannelID != "UCabc123" {
		t.Errorf("unexpected identity fields: %+v", v)
	}
	if v.DurationRaw != "PT1H30M" {
		t.Errorf("expected raw duration PT1H30M, got %q", v.DurationRaw)
	}
	if v.ViewCount != 123456 {
		t.Errorf("expected view count 123456, got %d", v.ViewCount)
	}
	if !v.PublishedAt.Equal(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected publishedAt: %v", v.PublishedAt)
	}
}

func TestVideosByIDBatching(t *testing.T) {
	var batches []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batches = append(batches, r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = "v"
	}

	client := NewClient(testConfig(srv.URL))
	if _, err := client.VideosByID(context.Background(), ids); err != nil {
		t.Fatalf("VideosByID failed: %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches for 120 IDs, got %d", len(batches))
	}
	if n := len(strings.Split(batches[0], ",")); n != 50 {
		t.Errorf("expected first batch of 50, got %d", n)
	}
	if n := len(strings.Split(batches[2], ",")); n != 20 {
		t.Errorf("expected last batch of 20, got %d", n)
	}
}

func TestVideosByIDEmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	videos, err := client.VideosByID(context.Background(), nil)
	if err != nil {
		t.Fatalf("VideosByID failed: %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("expected no videos, got %d", len(videos))
	}
}

func TestDoGetNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "quotaExceeded"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.RecentUploads(context.Background(), "UCabc123", 15)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestViewCountParseFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Videos with hidden view counts omit the statistics field.
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": "vid-1",
					"snippet": {"title": "t"},
					"contentDetails": {"duration": "PT5M"},
					"statistics": {}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	videos, err := client.VideosByID(context.Background(), []string{"vid-1"})
	if err != nil {
		t.Fatalf("VideosByID failed: %v", err)
	}
	if videos[0].ViewCount != 0 {
		t.Errorf("expected view count 0 for hidden stats, got %d", videos[0].ViewCount)
	}
}
