package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/app"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/infra/memory"
)

func newTestService() *app.ShowService {
	store := memory.NewLiveStore()
	shows := memory.NewShowRepository(memory.NewStaticShowLoader(map[string]domain.ShowContent{
		"show-1": {
			ShowID: "show-1",
			Config: domain.ScoringConfig{Mode: domain.ModePooled, PoolPerQuestion: 90},
			Questions: []domain.Question{
				{ShowQuestionID: "Q1", Order: "1"},
			},
		},
	}), 5*time.Minute)
	return app.NewShowService(store, shows)
}

func judgedState() domain.LiveState {
	correct := true
	wrong := false
	state := domain.EmptyLiveState()
	state.Teams = []domain.Team{
		{ShowTeamID: "T1", TeamName: "Alpha"},
		{ShowTeamID: "T2", TeamName: "Bravo"},
	}
	state.EntryOrder = []string{"T1", "T2"}
	state.Grid.SetCell("T1", "Q1", domain.Cell{IsCorrect: &correct})
	state.Grid.SetCell("T2", "Q1", domain.Cell{IsCorrect: &wrong})
	return state
}

func TestSaveLiveAndStandings(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	result, err := service.SaveLive(ctx, "show-1", 0, judgedState(), "host-a")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.OK || result.Version != 1 {
		t.Fatalf("expected accepted save at version 1, got %+v", result)
	}

	standings, err := service.Standings(ctx, "show-1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if standings.Version != 1 || len(standings.Rows) != 2 {
		t.Fatalf("unexpected standings: %+v", standings)
	}
	if standings.Rows[0].ShowTeamID != "T1" || standings.Rows[0].Total != 90 {
		t.Fatalf("expected Alpha leading with the full pool, got %+v", standings.Rows[0])
	}
}

func TestSaveLiveRejectsNegativeVersion(t *testing.T) {
	service := newTestService()
	if _, err := service.SaveLive(context.Background(), "show-1", -2, domain.EmptyLiveState(), ""); err != domain.ErrBadVersion {
		t.Fatalf("expected ErrBadVersion, got %v", err)
	}
}

func TestStandingsUnknownShow(t *testing.T) {
	service := newTestService()
	if _, err := service.Standings(context.Background(), "nope"); err != domain.ErrShowNotFound {
		t.Fatalf("expected ErrShowNotFound, got %v", err)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	ch, cancel, err := service.Subscribe(ctx, "show-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := <-ch
	if initial.Version != 0 || len(initial.Rows) != 0 {
		t.Fatalf("expected empty version-0 snapshot, got %+v", initial)
	}

	if _, err := service.SaveLive(ctx, "show-1", 0, judgedState(), "host-a"); err != nil {
		t.Fatalf("save: %v", err)
	}

	update := <-ch
	if update.Version != 1 || len(update.Rows) != 2 {
		t.Fatalf("expected version-1 update, got %+v", update)
	}
}

func TestConflictDoesNotBroadcast(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if _, err := service.SaveLive(ctx, "show-1", 0, judgedState(), "host-a"); err != nil {
		t.Fatalf("save: %v", err)
	}

	ch, cancel, err := service.Subscribe(ctx, "show-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-ch // initial snapshot

	result, err := service.SaveLive(ctx, "show-1", 0, domain.EmptyLiveState(), "host-b")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.OK {
		t.Fatalf("stale save must conflict")
	}

	select {
	case update := <-ch:
		t.Fatalf("rejected save must not broadcast, got %+v", update)
	case <-time.After(100 * time.Millisecond):
	}
}
