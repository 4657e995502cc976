package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLiveStoreZeroDocument(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLiveStore(newClient(mr), time.Hour)
	doc, changed, err := store.Load(context.Background(), "show-1", -1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !changed || doc.Version != 0 {
		t.Fatalf("expected changed zero document, got changed=%v doc=%+v", changed, doc)
	}
}

func TestLiveStoreSaveAndConditionalLoad(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()

	store := NewLiveStore(newClient(mr), time.Hour)

	state := domain.EmptyLiveState()
	state.Teams = append(state.Teams, domain.Team{ShowTeamID: "T1", TeamName: "Alpha"})

	result, err := store.Save(ctx, "show-1", 0, state, "host-a")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.OK || result.Version != 1 {
		t.Fatalf("expected accepted save at version 1, got %+v", result)
	}
	if !mr.Exists("show:live:show-1") {
		t.Fatalf("expected document key in redis")
	}

	if _, changed, _ := store.Load(ctx, "show-1", 1); changed {
		t.Fatalf("expected unchanged at current version")
	}
	doc, changed, err := store.Load(ctx, "show-1", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !changed || doc.Version != 1 || len(doc.State.Teams) != 1 {
		t.Fatalf("expected version-1 document, got changed=%v doc=%+v", changed, doc)
	}
	if doc.By == nil || *doc.By != "host-a" {
		t.Fatalf("expected writer recorded, got %v", doc.By)
	}
}

func TestLiveStoreStaleSaveConflicts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()

	store := NewLiveStore(newClient(mr), time.Hour)

	stateA := domain.EmptyLiveState()
	stateA.EntryOrder = []string{"T1"}
	if result, _ := store.Save(ctx, "show-1", 0, stateA, "host-a"); !result.OK {
		t.Fatalf("first save should be accepted")
	}

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
		t.Fatalf("conflict must carry the latest document, got %+v", result)
	}
	if result.Latest.State.EntryOrder[0] != "T1" {
		t.Fatalf("latest state should be host A's, got %+v", result.Latest.State)
	}
}
