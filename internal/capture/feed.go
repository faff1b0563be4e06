// Package capture keeps the client side log of requests captured on a
// session endpoint, seeded from a snapshot and extended by a live stream.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vedsharma/pingforge/internal/model"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Source provides captured requests for a session.
//
// Stream delivers records in transport order on the returned channel and
// must close it once ctx is cancelled or the connection ends.
type Source interface {
	Snapshot(ctx context.Context, sessionID string) ([]model.CapturedRequest, error)
	Stream(ctx context.Context, sessionID string) (<-chan model.CapturedRequest, error)
}

type Option func(*Feed)

func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithListener registers fn for every live record accepted into the log.
// It runs on the stream goroutine, in delivery order, without the feed lock.
func WithListener(fn func(model.CapturedRequest)) Option {
	return func(f *Feed) { f.onRecord = fn }
}

// Feed owns the capture log of one active session at a time. The log is
// ordered most recently observed first: live records are prepended on
// arrival and never re-sorted by timestamp.
type Feed struct {
	source   Source
	logger   *slog.Logger
	onRecord func(model.CapturedRequest)

	mu        sync.Mutex
	sessionID string
	gen       uint64
	state     State
	log       []model.CapturedRequest
	seen      map[string]struct{}
	cancel    context.CancelFunc

	pumps sync.WaitGroup
}

func NewFeed(source Source, opts ...Option) *Feed {
	f := &Feed{
		source: source,
		logger: slog.Default(),
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetSession tears down the current stream, clears the log when the session
// changes, then fetches the snapshot and opens the live stream concurrently.
// The stream stays open until ctx is cancelled, the session changes or Close
// is called. An empty id only tears down.
func (f *Feed) SetSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	f.teardownLocked()
	if sessionID != f.sessionID {
		f.log = nil
		f.seen = make(map[string]struct{})
	}
	f.sessionID = sessionID
	f.gen++
	gen := f.gen
	if sessionID == "" {
		f.mu.Unlock()
		return nil
	}
	f.setStateLocked(StateConnecting)
	streamCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	g, gctx := errgroup.WithContext(streamCtx)
	g.Go(func() error {
		records, err := f.source.Snapshot(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("fetch snapshot for session %s: %w", sessionID, err)
		}
		f.seed(gen, sessionID, records)
		return nil
	})
	g.Go(func() error {
		events, err := f.source.Stream(streamCtx, sessionID)
		if err != nil {
			return fmt.Errorf("open stream for session %s: %w", sessionID, err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.gen || gctx.Err() != nil {
			// superseded while dialing, or the snapshot failed
			cancel()
			if gen == f.gen {
				f.setStateLocked(StateDisconnected)
			}
			go drain(events)
			return nil
		}
		f.setStateLocked(StateConnected)
		f.pumps.Add(1)
		go f.pump(gen, sessionID, events)
		return nil
	})
	if err := g.Wait(); err != nil {
		f.abort(gen)
		return err
	}
	return nil
}

// abort undoes a failed SetSession: the stream is cancelled, pending records
// of generation gen become stale and the log starts empty.
func (f *Feed) abort(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return
	}
	f.teardownLocked()
	f.gen++
	f.log = nil
	f.seen = make(map[string]struct{})
}

// Close ends the live stream and waits for its goroutine. The log is kept.
func (f *Feed) Close() {
	f.mu.Lock()
	f.teardownLocked()
	f.gen++
	f.mu.Unlock()
	f.pumps.Wait()
}

// Snapshot returns a copy of the log.
func (f *Feed) Snapshot() []model.CapturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.CapturedRequest, len(f.log))
	copy(out, f.log)
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.log)
}

func (f *Feed) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionID
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Feed) pump(gen uint64, sessionID string, events <-chan model.CapturedRequest) {
	defer f.pumps.Done()
	for rec := range events {
		f.appendLive(gen, sessionID, rec)
	}
	f.setState(gen, StateDisconnected)
}

// appendLive prepends rec unless it belongs to a superseded stream. The
// session is checked here rather than at connect time because a message can
// arrive between a session change and the old stream's teardown.
func (f *Feed) appendLive(gen uint64, sessionID string, rec model.CapturedRequest) {
	f.mu.Lock()
	if gen != f.gen || sessionID != f.sessionID {
		f.mu.Unlock()
		f.logger.Debug("dropping record from stale stream", "session", sessionID, "request", rec.ID)
		return
	}
	if rec.ID != "" {
		if _, dup := f.seen[rec.ID]; dup {
			f.mu.Unlock()
			return
		}
		f.seen[rec.ID] = struct{}{}
	}
	f.log = append([]model.CapturedRequest{rec}, f.log...)
	listener := f.onRecord
	f.mu.Unlock()

	if listener != nil {
		listener(rec)
	}
}

// seed merges the snapshot behind any live records that arrived first.
func (f *Feed) seed(gen uint64, sessionID string, records []model.CapturedRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen || sessionID != f.sessionID {
		return
	}

	merged := make([]model.CapturedRequest, 0, len(f.log)+len(records))
	merged = append(merged, f.log...)
	for _, rec := range records {
		if rec.ID != "" {
			if _, dup := f.seen[rec.ID]; dup {
				continue
			}
			f.seen[rec.ID] = struct{}{}
		}
		merged = append(merged, rec)
	}
	f.log = merged
	f.logger.Debug("seeded capture log", "session", sessionID, "snapshot", len(records), "total", len(merged))
}

func (f *Feed) setState(gen uint64, s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return
	}
	f.setStateLocked(s)
}

func (f *Feed) setStateLocked(s State) {
	if f.state == s {
		return
	}
	f.logger.Debug("capture feed state", "session", f.sessionID, "from", f.state.String(), "to", s.String())
	f.state = s
}

func (f *Feed) teardownLocked() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.setStateLocked(StateDisconnected)
}

func drain(events <-chan model.CapturedRequest) {
	for range events {
	}
}
