// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})
	return db
}

func TestLoadMissingProfileReturnsEmpty(t *testing.T) {
	store := NewStore(openTestDB(t))

	p, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected non-nil profile")
	}
	if len(p.TagScores) != 0 {
		t.Errorf("expected empty tag scores, got %v", p.TagScores)
	}
	if p.LastSurveyAt != nil {
		t.Errorf("expected nil LastSurveyAt, got %v", p.LastSurveyAt)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	p := NewProfile()
	p.AddScore("歌枠", 50)
	p.AddScore("FPS", 10)
	p.AddScore("FPS", -13) // floors at zero
	p.Interests = []string{"歌枠", "ASMR"}
	p.LastSurveyAt = &now

	if err := store.Save(ctx, "user-1", p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Score("歌枠") != 50 || got.Score("FPS") != 0 {
		t.Errorf("unexpected scores: %v", got.TagScores)
	}
	if !got.HasInterest("ASMR") || got.HasInterest("FPS") {
		t.Errorf("unexpected interests: %v", got.Interests)
	}
	if got.LastSurveyAt == nil || !got.LastSurveyAt.Equal(now) {
		t.Errorf("expected LastSurveyAt %v, got %v", now, got.LastSurveyAt)
	}
}

func TestLoadIsolatesUsers(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	p := NewProfile()
	p.AddScore("雑談", 10)
	if err := store.Save(ctx, "alice", p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	other, err := store.Load(ctx, "bob")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if other.Score("雑談") != 0 {
		t.Errorf("expected bob to have no score, got %d", other.Score("雑談"))
	}
}

func TestUpdateCreatesAndMutates(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	err := store.Update(ctx, "user-1", func(p *Profile) error {
		p.AddScore("麻雀", 21)
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = store.Update(ctx, "user-1", func(p *Profile) error {
		p.AddScore("麻雀", -1)
		return nil
	})
	if err != nil {
		t.Fatalf("second Update failed: %v", err)
	}

	got, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Score("麻雀") != 20 {
		t.Errorf("expected 麻雀 score 20, got %d", got.Score("麻雀"))
	}
}

func TestUpdatePropagatesMutateError(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	wantErr := context.DeadlineExceeded
	err := store.Update(ctx, "user-1", func(p *Profile) error {
		p.AddScore("原神", 100)
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected mutate error to propagate, got %v", err)
	}

	got, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Score("原神") != 0 {
		t.Errorf("failed mutate must not persist, got score %d", got.Score("原神"))
	}
}

func TestUpdateConcurrentIncrements(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	const goroutines = 8
	const perGoroutine = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				err := store.Update(ctx, "user-1", func(p *Profile) error {
					p.AddScore("ホラー", 1)
					return nil
				})
				if err != nil {
					t.Errorf("Update failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Score("ホラー") != goroutines*perGoroutine {
		t.Errorf("expected score %d, got %d", goroutines*perGoroutine, got.Score("ホラー"))
	}
}

func TestDelete(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	p := NewProfile()
	p.AddScore("ASMR", 5)
	if err := store.Save(ctx, "user-1", p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// Deleting a missing record is a no-op.
	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	got, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.TagScores) != 0 {
		t.Errorf("expected empty profile after delete, got %v", got.TagScores)
	}
}
