// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

// Package profile stores per-user taste profiles in BadgerDB. A profile is
// the single mutable record the feedback loop writes to: tag scores, survey
// interests and the survey timestamp. All writes go through one Badger
// transaction per outcome so concurrent feedback never interleaves partial
// updates.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/harukimoto/oshifeed/internal/metrics"
)

// profileKeyPrefix namespaces profile records in the shared Badger instance.
const profileKeyPrefix = "profile:"

// updateRetries bounds optimistic retry on transaction conflicts. Feedback
// bursts for one user rarely exceed a handful of writers, so exhausting this
// indicates a stuck writer rather than normal contention.
const updateRetries = 32

// ErrTooManyConflicts is returned when an update keeps losing transaction
// conflicts against concurrent writers.
var ErrTooManyConflicts = errors.New("profile update: too many transaction conflicts")

// Profile is a user's accumulated taste state.
type Profile struct {
	// TagScores maps dictionary tags and pseudo-tags to affinity scores.
	// Scores are non-negative; decrements floor at zero.
	TagScores map[string]int `json:"tagScores"`

	// Interests holds the tags declared in the latest survey.
	Interests []string `json:"interests"`

	// LastSurveyAt is when the user last completed a survey, nil if never.
	LastSurveyAt *time.Time `json:"lastSurveyAt,omitempty"`
}

// NewProfile returns an empty profile. A user who has never interacted is
// indistinguishable from one whose record was deleted.
func NewProfile() *Profile {
	return &Profile{TagScores: make(map[string]int)}
}

// Score returns the affinity for a tag, zero when unknown.
func (p *Profile) Score(tag string) int {
	return p.TagScores[tag]
}

// AddScore adjusts a tag's affinity by delta, flooring at zero.
func (p *Profile) AddScore(tag string, delta int) {
	if p.TagScores == nil {
		p.TagScores = make(map[string]int)
	}
	next := p.TagScores[tag] + delta
	if next < 0 {
		next = 0
	}
	p.TagScores[tag] = next
}

// HasInterest reports whether the tag was named in the latest survey.
func (p *Profile) HasInterest(tag string) bool {
	for _, t := range p.Interests {
		if t == tag {
			return true
		}
	}
	return false
}

// Store persists profiles in BadgerDB keyed by user.
type Store struct {
	db *badger.DB
}

// NewStore creates a Badger-backed profile store.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

func profileKey(userKey string) []byte {
	return []byte(profileKeyPrefix + userKey)
}

// Load fetches a user's profile. A user with no stored record gets a fresh
// empty profile, not an error.
func (s *Store) Load(ctx context.Context, userKey string) (*Profile, error) {
	p := NewProfile()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(userKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, p)
		})
	})
	if err != nil {
		return nil, err
	}

	if p.TagScores == nil {
		p.TagScores = make(map[string]int)
	}
	return p, nil
}

// Save overwrites a user's profile record.
func (s *Store) Save(ctx context.Context, userKey string, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(userKey), data)
	})
}

// Update applies mutate to the user's profile inside a single transaction and
// persists the result with exactly one write. On transaction conflict the
// read-mutate-write cycle is retried from a fresh snapshot, so concurrent
// feedback events for the same user serialize instead of clobbering each
// other.
func (s *Store) Update(ctx context.Context, userKey string, mutate func(*Profile) error) error {
	for attempt := 0; attempt < updateRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			p := NewProfile()

			item, err := txn.Get(profileKey(userKey))
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("get profile: %w", err)
			}
			if err == nil {
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, p)
				}); err != nil {
					return fmt.Errorf("unmarshal profile: %w", err)
				}
				if p.TagScores == nil {
					p.TagScores = make(map[string]int)
				}
			}

			if err := mutate(p); err != nil {
				return err
			}

			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshal profile: %w", err)
			}
			return txn.Set(profileKey(userKey), data)
		})

		if errors.Is(err, badger.ErrConflict) {
			metrics.ProfileWriteConflicts.Inc()
			continue
		}
		return err
	}

	return ErrTooManyConflicts
}

// Delete removes a user's profile. Missing records are not an error.
func (s *Store) Delete(ctx context.Context, userKey string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(profileKey(userKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
