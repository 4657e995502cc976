package livesync_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/app"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/infra/memory"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/livesync"
	transport "github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/transport/http"
)

// newLiveServer wires the real handler over the in-memory store so client
// tests exercise the wire contract end to end. saves counts POSTs.
func newLiveServer(saves *int64) *httptest.Server {
	store := memory.NewLiveStore()
	shows := memory.NewShowRepository(memory.NewStaticShowLoader(map[string]domain.ShowContent{
		"show-1": {
			ShowID:    "show-1",
			Config:    domain.ScoringConfig{Mode: domain.ModePooled, PoolPerQuestion: 90},
			Questions: []domain.Question{{ShowQuestionID: "Q1", Order: "1"}},
		},
	}), time.Minute)
	service := app.NewShowService(store, shows)
	liveHandler := transport.NewLiveHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/live/", func(w http.ResponseWriter, r *http.Request) {
		if saves != nil && r.Method == http.MethodPost {
			atomic.AddInt64(saves, 1)
		}
		liveHandler.ServeLive(w, r)
	})
	return httptest.NewServer(mux)
}

func TestClientFetchZeroState(t *testing.T) {
	server := newLiveServer(nil)
	defer server.Close()
	client := livesync.NewClient(server.URL)

	doc, changed, err := client.Fetch(context.Background(), "show-1", -1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !changed || doc.Version != 0 {
		t.Fatalf("expected changed zero document, got changed=%v doc=%+v", changed, doc)
	}
	if doc.State.Teams == nil || len(doc.State.Teams) != 0 {
		t.Fatalf("expected empty team list, got %+v", doc.State.Teams)
	}
}

func TestClientFetchUnchanged(t *testing.T) {
	server := newLiveServer(nil)
	defer server.Close()
	client := livesync.NewClient(server.URL)

	_, changed, err := client.Fetch(context.Background(), "show-1", 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if changed {
		t.Fatalf("matching version must report unchanged")
	}
}

func TestClientPushAcceptedThenConflict(t *testing.T) {
	server := newLiveServer(nil)
	defer server.Close()
	client := livesync.NewClient(server.URL)
	ctx := context.Background()

	stateA := domain.EmptyLiveState()
	stateA.Teams = append(stateA.Teams, domain.Team{ShowTeamID: "T1", TeamName: "Alpha"})

	result, err := client.Push(ctx, "show-1", 0, stateA, "host-a")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if !result.OK || result.Version != 1 {
		t.Fatalf("expected accepted at version 1, got %+v", result)
	}

	// A second writer still holding version 0 observes the conflict.
	result, err = client.Push(ctx, "show-1", 0, domain.EmptyLiveState(), "host-b")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if result.OK {
		t.Fatalf("stale push must be rejected")
	}
	if result.Latest == nil || result.Latest.Version != 1 || len(result.Latest.State.Teams) != 1 {
		t.Fatalf("conflict must carry host A's document, got %+v", result.Latest)
	}
}
