// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

/*
client.go - YouTube Data API v3 Client

This file implements a REST client for the YouTube Data API endpoints the
feed needs: recent uploads per channel (playlistItems.list against the
channel's uploads playlist) and batch video metadata (videos.list).

API Reference: https://developers.google.com/youtube/v3/docs
*/
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/harukimoto/oshifeed/internal/config"
	"github.com/harukimoto/oshifeed/internal/metrics"
	"github.com/harukimoto/oshifeed/internal/models"
)

// maxVideosPerRequest is the videos.list id-parameter limit.
const maxVideosPerRequest = 50

// ClientInterface defines the YouTube API operations the pool and feedback
// paths depend on. Both Client and CircuitBreakerClient implement it.
type ClientInterface interface {
	RecentUploads(ctx context.Context, channelID string, max int) ([]string, error)
	VideosByID(ctx context.Context, ids []string) ([]models.Video, error)
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// Client provides access to the YouTube Data API v3. Outbound calls are
// throttled by a token-bucket limiter to stay inside API quota.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a YouTube API client from configuration.
func NewClient(cfg *config.YouTubeConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}
}

// UploadsPlaylistID derives a channel's uploads playlist ID. YouTube channel
// IDs start with "UC" and the corresponding uploads playlist swaps that
// prefix for "UU", which saves a channels.list call per refill.
func UploadsPlaylistID(channelID string) string {
	if strings.HasPrefix(channelID, "UC") {
		return "UU" + channelID[2:]
	}
	return channelID
}

// playlistItemsResponse is the subset of the playlistItems.list response we
// consume.
type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// videosResponse is the subset of the videos.list response we consume.
// Statistics counters arrive as decimal strings.
type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			ChannelID    string    `json:"channelId"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
			CategoryID   string    `json:"categoryId"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// RecentUploads returns the newest video IDs from a channel's uploads
// playlist, newest first, up to max.
func (c *Client) RecentUploads(ctx context.Context, channelID string, max int) ([]string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", UploadsPlaylistID(channelID))
	params.Set("maxResults", strconv.Itoa(max))

	var resp playlistItemsResponse
	if err := c.doGet(ctx, "/playlistItems", params, &resp); err != nil {
		return nil, fmt.Errorf("playlist items for %s: %w", channelID, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if id := item.Snippet.ResourceID.VideoID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// VideosByID fetches full metadata for the given video IDs, batching in
// chunks of 50 per the API limit. Unknown IDs are silently absent from the
// result, matching API behavior for deleted or private videos.
func (c *Client) VideosByID(ctx context.Context, ids []string) ([]models.Video, error) {
	videos := make([]models.Video, 0, len(ids))

	for start := 0; start < len(ids); start += maxVideosPerRequest {
		end := start + maxVideosPerRequest
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("part", "snippet,contentDetails,statistics")
		params.Set("id", strings.Join(ids[start:end], ","))

		var resp videosResponse
		if err := c.doGet(ctx, "/videos", params, &resp); err != nil {
			return nil, fmt.Errorf("videos batch: %w", err)
		}

		for _, item := range resp.Items {
			views, err := strconv.ParseUint(item.Statistics.ViewCount, 10, 64)
			if err != nil {
				views = 0
			}
			videos = append(videos, models.Video{
				ID:           item.ID,
				Title:        item.Snippet.Title,
				Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
				ChannelTitle: item.Snippet.ChannelTitle,
				ChannelID:    item.Snippet.ChannelID,
				PublishedAt:  item.Snippet.PublishedAt,
				DurationRaw:  item.ContentDetails.Duration,
				ViewCount:    views,
				Category:     item.Snippet.CategoryID,
			})
		}
	}

	return videos, nil
}

// doGet performs a rate-limited GET against an API endpoint and decodes the
// JSON response into out.
func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("key", c.apiKey)
	fullURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordYouTubeRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("youtube request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordYouTubeRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("youtube %s returned status %d (failed to read body)", endpoint, resp.StatusCode)
		}
		return fmt.Errorf("youtube %s returned status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode youtube %s response: %w", endpoint, err)
	}

	return nil
}
