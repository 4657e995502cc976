package livesync

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
)

const (
	// DefaultPollInterval is how often the session re-validates its copy
	// against the server.
	DefaultPollInterval = 3 * time.Second
	// DefaultSaveDebounce coalesces rapid successive edits into one save.
	DefaultSaveDebounce = 400 * time.Millisecond
)

// Options tune a Session. Zero values fall back to the defaults above.
type Options struct {
	PollInterval time.Duration
	SaveDebounce time.Duration
	// OnAdopt fires whenever local state is replaced by a remote document
	// (newer poll result or lost save conflict). It runs on the session
	// goroutine; keep it cheap.
	OnAdopt func(domain.LiveDocument)
}

// Session owns one show's sync loop: the last-known version, a poll
// ticker, and a debounced save timer. Construct it when a show is
// selected and cancel its context when the show is deselected; canceling
// abandons any pending debounced save, so an edit made immediately before
// teardown can be lost. That is a known limitation of the protocol, not
// a bug to engineer around here.
//
// Conflict policy is adopt-remote-discard-local: a writer that loses the
// version race takes the server's document wholesale and the operator
// redoes the edit. There is no merge strategy for two hosts scoring the
// same show concurrently.
type Session struct {
	client  *Client
	showID  string
	by      string
	opts    Options
	kick    chan struct{}
	running chan struct{}

	mu          sync.Mutex
	version     int64
	state       domain.LiveState
	initialized bool
}

func NewSession(client *Client, showID, by string, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = DefaultSaveDebounce
	}
	return &Session{
		client:  client,
		showID:  showID,
		by:      by,
		opts:    opts,
		kick:    make(chan struct{}, 1),
		running: make(chan struct{}),
		state:   domain.EmptyLiveState(),
	}
}

// Run drives the poll and debounced-save loops until ctx is canceled.
// It performs one immediate fetch so the session starts from the server's
// current document.
func (s *Session) Run(ctx context.Context) {
	close(s.running)
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(s.opts.SaveDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		case <-s.kick:
			// Each edit restarts the debounce window.
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(s.opts.SaveDebounce)
		case <-debounce.C:
			s.saveOnce(ctx)
		}
	}
}

// Started reports a channel closed once Run has begun (test hook).
func (s *Session) Started() <-chan struct{} {
	return s.running
}

// Update applies a local mutation to the cached state and schedules a
// debounced save. Safe to call from any goroutine.
func (s *Session) Update(mutate func(*domain.LiveState)) {
	s.mu.Lock()
	mutate(&s.state)
	s.initialized = true
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the cached state and its version.
func (s *Session) Snapshot() (domain.LiveState, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state), s.version
}

func (s *Session) pollOnce(ctx context.Context) {
	s.mu.Lock()
	since := s.version
	if !s.initialized {
		since = -1
	}
	s.mu.Unlock()

	doc, changed, err := s.client.Fetch(ctx, s.showID, since)
	if err != nil {
		// Transient; the next tick retries.
		log.Printf("livesync: poll %s: %v", s.showID, err)
		return
	}
	if !changed {
		return
	}
	s.adopt(doc, false)
}

func (s *Session) saveOnce(ctx context.Context) {
	s.mu.Lock()
	version := s.version
	state := copyState(s.state)
	s.mu.Unlock()

	result, err := s.client.Push(ctx, s.showID, version, state, s.by)
	if err != nil {
		// Transient; the next edit or poll cycle picks things back up.
		log.Printf("livesync: save %s: %v", s.showID, err)
		return
	}
	if result.OK {
		// Local state stays authoritative; only the version advances.
		s.mu.Lock()
		s.version = result.Version
		s.initialized = true
		s.mu.Unlock()
		return
	}
	// Lost the race: adopt the server's document, dropping the local edit.
	if result.Latest != nil {
		s.adopt(*result.Latest, true)
	}
}

// adopt replaces local state with a remote document. Non-forced adoption
// (polling) only applies strictly newer versions, so an unchanged or
// stale poll result never clobbers local edits.
func (s *Session) adopt(doc domain.LiveDocument, force bool) {
	s.mu.Lock()
	if !force && s.initialized && doc.Version <= s.version {
		s.mu.Unlock()
		return
	}
	s.version = doc.Version
	s.state = copyState(doc.State)
	s.initialized = true
	s.mu.Unlock()

	if s.opts.OnAdopt != nil {
		s.opts.OnAdopt(doc)
	}
}

func copyState(in domain.LiveState) domain.LiveState {
	out := domain.LiveState{
		Teams:      make([]domain.Team, len(in.Teams)),
		Grid:       make(domain.Grid, len(in.Grid)),
		EntryOrder: make([]string, len(in.EntryOrder)),
	}
	copy(out.Teams, in.Teams)
	copy(out.EntryOrder, in.EntryOrder)
	for teamID, row := range in.Grid {
		cells := make(map[string]domain.Cell, len(row))
		for questionID, cell := range row {
			cells[questionID] = cell
		}
		out.Grid[teamID] = cells
	}
	return out
}
