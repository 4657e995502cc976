package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
)

func TestLoadMissingShowReturnsZeroDocument(t *testing.T) {
	store := NewLiveStore()

	doc, changed, err := store.Load(context.Background(), "show-1", -1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !changed {
		t.Fatalf("unconditional load should report changed")
	}
	if doc.Version != 0 || len(doc.State.Teams) != 0 {
		t.Fatalf("expected zero document, got %+v", doc)
	}
}

func TestSaveIncrementsVersionByOne(t *testing.T) {
	store := NewLiveStoreWithClock(func() time.Time { return time.UnixMilli(1700000000000) })
	ctx := context.Background()

	state := domain.EmptyLiveState()
	state.Teams = append(state.Teams, domain.Team{ShowTeamID: "T1", TeamName: "Alpha"})

	result, err := store.Save(ctx, "show-1", 0, state, "host-a")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.OK || result.Version != 1 {
		t.Fatalf("expected accepted save at version 1, got %+v", result)
	}

	doc, _, err := store.Load(ctx, "show-1", -1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Version != 1 || doc.UpdatedAt != 1700000000000 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.By == nil || *doc.By != "host-a" {
		t.Fatalf("expected writer recorded, got %v", doc.By)
	}
}

func TestStaleSaveConflictsAndReturnsLatest(t *testing.T) {
	store := NewLiveStore()
	ctx := context.Background()

	stateA := domain.EmptyLiveState()
	stateA.EntryOrder = []string{"T1"}
	if result, _ := store.Save(ctx, "show-1", 0, stateA, "host-a"); !result.OK {
		t.Fatalf("first save should be accepted")
	}

	// Host B still holds version 0.
	stateB := domain.EmptyLiveState()
	stateB.EntryOrder = []string{"T2"}
	result, err := store.Save(ctx, "show-1", 0, stateB, "host-b")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.OK {
		t.Fatalf("stale save must be rejected")
	}
	if result.Latest == nil || result.Latest.Version != 1 {
		t.Fatalf("conflict must carry the authoritative document, got %+v", result)
	}
	if len(result.Latest.State.EntryOrder) != 1 || result.Latest.State.EntryOrder[0] != "T1" {
		t.Fatalf("latest state should be host A's, got %+v", result.Latest.State)
	}
}

func TestConditionalLoadUnchanged(t *testing.T) {
	store := NewLiveStore()
	ctx := context.Background()

	if _, changed, _ := store.Load(ctx, "show-1", 0); changed {
		t.Fatalf("version 0 matches the zero document; expected unchanged")
	}

	_, _ = store.Save(ctx, "show-1", 0, domain.EmptyLiveState(), "")
	if _, changed, _ := store.Load(ctx, "show-1", 1); changed {
		t.Fatalf("expected unchanged at matching version")
	}
	if _, changed, _ := store.Load(ctx, "show-1", 0); !changed {
		t.Fatalf("expected changed at stale version")
	}
}
