package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"civic-quiz-engine/internal/domain"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestProgressStoreSaveLoadClear(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewProgressStore(client, time.Hour)
	ctx := context.Background()

	key := domain.ProgressKey{UserID: "u1", SessionID: "s1", TopicID: "civics-101", Mode: "standard"}

	if _, err := store.LoadProgress(ctx, key); err != domain.ErrSnapshotNotFound {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	snap := domain.Snapshot{
		TopicID:              "civics-101",
		Mode:                 "standard",
		AttemptID:            "a1",
		CurrentQuestionIndex: 1,
		Answers:              map[string]string{"q1": "o2"},
		Score:                100,
		Streak:               1,
		MaxStreak:            1,
	}
	if err := store.SaveProgress(ctx, key, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !mr.Exists("quiz:progress:u1:s1:civics-101:standard") {
		t.Fatal("expected progress key in redis")
	}

	loaded, err := store.LoadProgress(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CurrentQuestionIndex != 1 || loaded.Answers["q1"] != "o2" {
		t.Fatalf("snapshot did not round-trip: %+v", loaded)
	}

	if err := store.ClearProgress(ctx, key); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("quiz:progress:u1:s1:civics-101:standard") {
		t.Fatal("expected progress key deleted")
	}
}

func TestProgressStoreSnapshotsAgeOut(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewProgressStore(client, time.Minute)
	ctx := context.Background()

	key := domain.ProgressKey{GuestToken: "g1", SessionID: "s1", TopicID: "t1", Mode: "practice"}
	if err := store.SaveProgress(ctx, key, domain.Snapshot{TopicID: "t1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.LoadProgress(ctx, key); err != domain.ErrSnapshotNotFound {
		t.Fatalf("expected snapshot to expire, got %v", err)
	}
}

func TestProgressStoreGuestIdentityPartitions(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewProgressStore(client, time.Hour)
	ctx := context.Background()

	a := domain.ProgressKey{GuestToken: "g1", SessionID: "s1", TopicID: "t1", Mode: "practice"}
	b := domain.ProgressKey{GuestToken: "g2", SessionID: "s1", TopicID: "t1", Mode: "practice"}

	if err := store.SaveProgress(ctx, a, domain.Snapshot{Score: 40}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.LoadProgress(ctx, b); err != domain.ErrSnapshotNotFound {
		t.Fatalf("expected guest tokens to partition snapshots, got %v", err)
	}
}
