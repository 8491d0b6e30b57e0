// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package api implements the HTTP surface: feed retrieval, feedback
// ingestion, profile inspection, roster management and live status checks.
// Handlers depend on small interfaces so tests can run without Badger or
// network access.
package api

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/harukimoto/oshifeed/internal/live"
	"github.com/harukimoto/oshifeed/internal/logging"
	"github.com/harukimoto/oshifeed/internal/models"
	"github.com/harukimoto/oshifeed/internal/profile"
	"github.com/harukimoto/oshifeed/internal/recommend"
	"github.com/harukimoto/oshifeed/internal/roster"
)

// Recommender produces topic-grouped feeds and ingests feedback.
type Recommender interface {
	GetRecommendations(ctx context.Context, userKey string) ([]recommend.TopicGroup, error)
	SubmitSurvey(ctx context.Context, userKey string, topics []string) error
	RecordClick(ctx context.Context, userKey, clickedTopic string, displayedTopics []string, videoID string) error
	Dictionary() *recommend.Dictionary
}

// ProfileStore loads and resets stored preference profiles.
type ProfileStore interface {
	Load(ctx context.Context, userKey string) (*profile.Profile, error)
	Delete(ctx context.Context, userKey string) error
}

// ChannelRoster manages a user's followed channel set.
type ChannelRoster interface {
	List(ctx context.Context, userKey string) ([]models.FavoriteChannel, error)
	Get(ctx context.Context, userKey, id string) (*models.FavoriteChannel, error)
	Put(ctx context.Context, userKey string, ch models.FavoriteChannel) error
	Delete(ctx context.Context, userKey, id string) error
}

// PoolController invalidates the shared video pool after roster changes.
type PoolController interface {
	Invalidate()
}

// LiveChecker probes a channel's live broadcast state.
type LiveChecker interface {
	Check(ctx context.Context, channelID string) (*live.Status, error)
}

// Handler holds the collaborators behind the HTTP endpoints.
type Handler struct {
	engine   Recommender
	profiles ProfileStore
	channels ChannelRoster
	pool     PoolController
	live     LiveChecker
	log      zerolog.Logger
}

// NewHandler wires the API handler set.
func NewHandler(engine Recommender, profiles ProfileStore, channels ChannelRoster, pool PoolController, liveChecker LiveChecker) *Handler {
	return &Handler{
		engine:   engine,
		profiles: profiles,
		channels: channels,
		pool:     pool,
		live:     liveChecker,
		log:      logging.With().Str("component", "api").Logger(),
	}
}

// SurveyRequest is the POST /survey payload.
type SurveyRequest struct {
	Topics []string `json:"topics" validate:"required,min=1,dive,required"`
}

// ClickRequest is the POST /click payload. VideoID and VideoTitle are
// optional: without a video id the click still adjusts topic scores, only the
// derived pseudo-tag bonuses are skipped. The title is accepted for client
// convenience and logging only; feature bonuses come from stored video
// metadata, not from the client-supplied title.
type ClickRequest struct {
	Topic           string   `json:"topic" validate:"required"`
	DisplayedTopics []string `json:"displayedTopics" validate:"required,min=1,dive,required"`
	VideoID         string   `json:"videoId"`
	VideoTitle      string   `json:"videoTitle"`
}

// ChannelRequest is the POST /channels payload.
type ChannelRequest struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Image string `json:"image" validate:"omitempty,url"`
}

// HandleHealth reports liveness. It requires no authentication.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "healthy"}, time.Now())
}

// HandleGetRecommendations returns the topic-grouped feed for the caller.
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())

	groups, err := h.engine.GetRecommendations(r.Context(), userKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeRecommendation,
			"failed to build recommendations", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"groups": groups}, started)
}

// HandleSubmitSurvey ingests an explicit interest survey.
func (h *Handler) HandleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())

	var req SurveyRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if err := h.engine.SubmitSurvey(r.Context(), userKey, req.Topics); err != nil {
		if errors.Is(err, recommend.ErrUnknownTopic) {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to record survey", err)
		return
	}

	respondData(w, http.StatusOK, map[string]string{"result": "recorded"}, started)
}

// HandleRecordClick ingests a click on a recommended video.
func (h *Handler) HandleRecordClick(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())

	var req ClickRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	err := h.engine.RecordClick(r.Context(), userKey, req.Topic, req.DisplayedTopics, req.VideoID)
	if err != nil {
		if errors.Is(err, recommend.ErrUnknownTopic) {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to record click", err)
		return
	}

	h.log.Debug().
		Str("video_id", sanitizeLogValue(req.VideoID)).
		Str("video_title", sanitizeLogValue(req.VideoTitle)).
		Msg("Click recorded")
	respondData(w, http.StatusOK, map[string]string{"result": "recorded"}, started)
}

// HandleGetProfile returns the caller's stored preference profile.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())

	p, err := h.profiles.Load(r.Context(), userKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to load profile", err)
		return
	}

	respondData(w, http.StatusOK, p, started)
}

// HandleResetProfile deletes the caller's stored profile, returning the
// preference model to the empty default.
func (h *Handler) HandleResetProfile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())

	if err := h.profiles.Delete(r.Context(), userKey); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to reset profile", err)
		return
	}

	h.log.Info().Str("user", sanitizeLogValue(userKey)).Msg("Profile reset")
	respondData(w, http.StatusOK, map[string]string{"result": "reset"}, started)
}

// surveyTagCount caps how many tag names a single survey page offers.
const surveyTagCount = 10

// HandleGetTags returns a shuffled selection of dictionary tag names for the
// survey UI. Shuffling keeps the survey from always presenting the same
// leading tags.
func (h *Handler) HandleGetTags(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	names := h.engine.Dictionary().Names()
	rand.Shuffle(len(names), func(i, j int) { //nolint:gosec // presentation shuffle, not security sensitive

		names[i], names[j] = names[j], names[i]
	})
	if len(names) > surveyTagCount {
		names = names[:surveyTagCount]
	}

	respondData(w, http.StatusOK, map[string]interface{}{"tags": names}, started)
}

// HandleListChannels returns the caller's followed channel roster.
func (h *Handler) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())

	channels, err := h.channels.List(r.Context(), userKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to list channels", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"channels": channels}, started)
}

// HandleGetChannel returns one followed channel from the caller's roster.
func (h *Handler) HandleGetChannel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())
	channelID := chi.URLParam(r, "channelID")

	ch, err := h.channels.Get(r.Context(), userKey, channelID)
	if err != nil {
		if errors.Is(err, roster.ErrChannelNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "channel not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to load channel", err)
		return
	}

	respondData(w, http.StatusOK, ch, started)
}

// HandleAddChannel adds or replaces a followed channel, then invalidates the
// video pool so the next feed read picks up the new channel's uploads.
func (h *Handler) HandleAddChannel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())

	var req ChannelRequest
	if apiErr := decodeAndValidate(r, &req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	ch := models.FavoriteChannel{ID: req.ID, Name: req.Name, Image: req.Image}
	if err := h.channels.Put(r.Context(), userKey, ch); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to store channel", err)
		return
	}

	h.pool.Invalidate()
	h.log.Info().Str("channel_id", sanitizeLogValue(req.ID)).Msg("Channel added to roster")
	respondData(w, http.StatusCreated, ch, started)
}

// HandleDeleteChannel removes a channel from the caller's roster.
func (h *Handler) HandleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userKey := UserKeyFromContext(r.Context())
	channelID := chi.URLParam(r, "channelID")

	if err := h.channels.Delete(r.Context(), userKey, channelID); err != nil {
		if errors.Is(err, roster.ErrChannelNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "channel not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStoreFailure,
			"failed to delete channel", err)
		return
	}

	h.pool.Invalidate()
	h.log.Info().Str("channel_id", sanitizeLogValue(channelID)).Msg("Channel removed from roster")
	respondData(w, http.StatusOK, map[string]string{"result": "deleted"}, started)
}

// HandleLiveStatus reports whether a channel is broadcasting right now.
func (h *Handler) HandleLiveStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	channelID := chi.URLParam(r, "channelID")

	status, err := h.live.Check(r.Context(), channelID)
	if err != nil {
		respondError(w, http.StatusBadGateway, ErrCodeLiveCheck,
			"failed to check live status", err)
		return
	}

	respondData(w, http.StatusOK, status, started)
}
