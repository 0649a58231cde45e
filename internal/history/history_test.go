package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docpress/docpress/internal/pipeline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(t *testing.T, store *Store, result *pipeline.Result, startedAt time.Time) {
	t.Helper()
	if err := store.RecordResult(context.Background(), result, startedAt); err != nil {
		t.Fatal(err)
	}
}

func TestRecordAndGetByBuildID(t *testing.T) {
	store := newTestStore(t)
	result := &pipeline.Result{
		BuildID:    "build-1",
		Outcome:    pipeline.OutcomeSuccess,
		SourceHash: "abc123",
		Commit:     "deadbeef",
		Committed:  true,
		Pages:      7,
		Duration:   1500 * time.Millisecond,
	}
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record(t, store, result, started)

	entry, err := store.GetByBuildID(context.Background(), "build-1")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Outcome != "success" || !entry.Committed || entry.Pages != 7 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Commit != "deadbeef" || entry.SourceHash != "abc123" {
		t.Errorf("hashes = %q %q", entry.Commit, entry.SourceHash)
	}
	if !entry.StartedAt.Equal(started) {
		t.Errorf("started at = %v", entry.StartedAt)
	}
	if entry.Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", entry.Duration)
	}
}

func TestGetByBuildIDNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetByBuildID(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown build")
	}
}

func TestRecentOrdering(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		record(t, store, &pipeline.Result{
			BuildID: string(rune('a' + i)),
			Outcome: pipeline.OutcomeSuccess,
		}, base.Add(time.Duration(i)*time.Minute))
	}

	entries, err := store.Recent(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].BuildID != "e" || entries[2].BuildID != "c" {
		t.Errorf("order = %v %v %v", entries[0].BuildID, entries[1].BuildID, entries[2].BuildID)
	}
}

func TestRecordFailedBuildKeepsError(t *testing.T) {
	store := newTestStore(t)
	record(t, store, &pipeline.Result{
		BuildID: "bad",
		Outcome: pipeline.OutcomeFailed,
		Err:     errors.New("apidoc (fatal): python package carmm not found"),
	}, time.Now())

	entry, err := store.GetByBuildID(context.Background(), "bad")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Error == "" || entry.Committed {
		t.Errorf("entry = %+v", entry)
	}
}

func TestGetRange(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		record(t, store, &pipeline.Result{
			BuildID: string(rune('a' + i)),
			Outcome: pipeline.OutcomeSuccess,
		}, base.Add(time.Duration(i)*time.Hour))
	}

	entries, err := store.GetRange(context.Background(), base.Add(30*time.Minute), base.Add(150*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].BuildID != "b" || entries[1].BuildID != "c" {
		t.Errorf("entries = %+v", entries)
	}
}
