// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package roster manages each user's followed-channel list. A user's roster
// drives both the favorite-channel scoring bonus and the video pool refill,
// so records are keyed per user.
package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/harukimoto/oshifeed/internal/models"
)

// channelKeyPrefix namespaces roster records in the shared Badger instance.
const channelKeyPrefix = "channel:"

// ErrChannelNotFound is returned when a channel ID is not in the roster.
var ErrChannelNotFound = errors.New("channel not found in roster")

// Store persists per-user followed-channel rosters in BadgerDB.
type Store struct {
	db *badger.DB
}

// NewStore creates a Badger-backed roster store.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

func userPrefix(userKey string) []byte {
	return []byte(channelKeyPrefix + userKey + ":")
}

func channelKey(userKey, id string) []byte {
	return append(userPrefix(userKey), id...)
}

// List returns the user's followed channels ordered by channel ID. Order
// matters for deterministic pool refills and stable API responses.
func (s *Store) List(ctx context.Context, userKey string) ([]models.FavoriteChannel, error) {
	var channels []models.FavoriteChannel

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := userPrefix(userKey)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var ch models.FavoriteChannel
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ch)
			})
			if err != nil {
				return fmt.Errorf("unmarshal channel: %w", err)
			}
			channels = append(channels, ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })
	return channels, nil
}

// Get returns one of the user's followed channels by ID.
func (s *Store) Get(ctx context.Context, userKey, id string) (*models.FavoriteChannel, error) {
	var ch models.FavoriteChannel

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(userKey, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrChannelNotFound
		}
		if err != nil {
			return fmt.Errorf("get channel: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ch)
		})
	})
	if err != nil {
		return nil, err
	}

	return &ch, nil
}

// Put adds or replaces a followed channel in the user's roster.
func (s *Store) Put(ctx context.Context, userKey string, ch models.FavoriteChannel) error {
	if ch.ID == "" {
		return errors.New("channel ID is required")
	}

	data, err := json.Marshal(&ch)
	if err != nil {
		return fmt.Errorf("marshal channel: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(channelKey(userKey, ch.ID), data)
	})
}

// Delete unfollows a channel. Returns ErrChannelNotFound when the channel
// was not in the user's roster.
func (s *Store) Delete(ctx context.Context, userKey, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(channelKey(userKey, id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrChannelNotFound
		} else if err != nil {
			return fmt.Errorf("get channel: %w", err)
		}
		return txn.Delete(channelKey(userKey, id))
	})
}
