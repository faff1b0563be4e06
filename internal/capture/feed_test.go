package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/pingforge/internal/model"
)

type fakeSource struct {
	mu        sync.Mutex
	snapshots map[string][]model.CapturedRequest
	snapErr   error
	streamErr error
	inputs    map[string]chan model.CapturedRequest
	opened    map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshots: make(map[string][]model.CapturedRequest),
		inputs:    make(map[string]chan model.CapturedRequest),
		opened:    make(map[string]int),
	}
}

func (s *fakeSource) Snapshot(ctx context.Context, sessionID string) ([]model.CapturedRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapErr != nil {
		return nil, s.snapErr
	}
	return append([]model.CapturedRequest(nil), s.snapshots[sessionID]...), nil
}

func (s *fakeSource) Stream(ctx context.Context, sessionID string) (<-chan model.CapturedRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	s.opened[sessionID]++
	in := s.input(sessionID)
	out := make(chan model.CapturedRequest)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case rec := <-in:
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *fakeSource) input(sessionID string) chan model.CapturedRequest {
	in, ok := s.inputs[sessionID]
	if !ok {
		in = make(chan model.CapturedRequest, 16)
		s.inputs[sessionID] = in
	}
	return in
}

func (s *fakeSource) push(sessionID string, rec model.CapturedRequest) {
	s.mu.Lock()
	in := s.input(sessionID)
	s.mu.Unlock()
	in <- rec
}

func rec(id, method string) model.CapturedRequest {
	return model.CapturedRequest{ID: id, Method: method, IPAddress: "10.0.0.1"}
}

func logIDs(log []model.CapturedRequest) []string {
	out := make([]string, 0, len(log))
	for _, r := range log {
		out = append(out, r.ID)
	}
	return out
}

func TestFeedSeedsAndPrepends(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.snapshots["s1"] = []model.CapturedRequest{rec("3", "GET"), rec("2", "POST"), rec("1", "GET")}

	var heard []string
	var mu sync.Mutex
	feed := NewFeed(src, WithListener(func(r model.CapturedRequest) {
		mu.Lock()
		heard = append(heard, r.ID)
		mu.Unlock()
	}))
	t.Cleanup(feed.Close)

	require.NoError(t, feed.SetSession(context.Background(), "s1"))
	assert.Equal(t, StateConnected, feed.State())
	assert.Equal(t, []string{"3", "2", "1"}, logIDs(feed.Snapshot()))

	// arrival order wins over timestamps
	late := rec("4", "PUT")
	late.Timestamp = time.Now().Add(-time.Hour)
	src.push("s1", late)
	src.push("s1", rec("5", "DELETE"))

	require.Eventually(t, func() bool { return feed.Len() == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, logIDs(feed.Snapshot()))

	mu.Lock()
	assert.Equal(t, []string{"4", "5"}, heard)
	mu.Unlock()
}

func TestFeedSkipsDuplicateIDs(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.snapshots["s1"] = []model.CapturedRequest{rec("1", "GET")}
	feed := NewFeed(src)
	t.Cleanup(feed.Close)

	require.NoError(t, feed.SetSession(context.Background(), "s1"))
	src.push("s1", rec("1", "GET"))
	src.push("s1", rec("2", "GET"))

	require.Eventually(t, func() bool { return feed.Len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"2", "1"}, logIDs(feed.Snapshot()))
}

func TestFeedSessionChangeClearsLog(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.snapshots["s1"] = []model.CapturedRequest{rec("a1", "GET")}
	src.snapshots["s2"] = []model.CapturedRequest{rec("b1", "POST")}
	feed := NewFeed(src)
	t.Cleanup(feed.Close)

	ctx := context.Background()
	require.NoError(t, feed.SetSession(ctx, "s1"))
	assert.Equal(t, []string{"a1"}, logIDs(feed.Snapshot()))

	require.NoError(t, feed.SetSession(ctx, "s2"))
	assert.Equal(t, "s2", feed.SessionID())
	assert.Equal(t, []string{"b1"}, logIDs(feed.Snapshot()))

	src.push("s2", rec("b2", "POST"))
	require.Eventually(t, func() bool { return feed.Len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"b2", "b1"}, logIDs(feed.Snapshot()))
}

func TestFeedSameSessionKeepsLog(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.snapshots["s1"] = []model.CapturedRequest{rec("1", "GET")}
	feed := NewFeed(src)
	t.Cleanup(feed.Close)

	ctx := context.Background()
	require.NoError(t, feed.SetSession(ctx, "s1"))
	src.push("s1", rec("2", "GET"))
	require.Eventually(t, func() bool { return feed.Len() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, feed.SetSession(ctx, "s1"))
	assert.Equal(t, []string{"2", "1"}, logIDs(feed.Snapshot()))
	src.mu.Lock()
	assert.Equal(t, 2, src.opened["s1"])
	src.mu.Unlock()
}

func TestFeedDropsStaleMessages(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	feed := NewFeed(src)
	t.Cleanup(feed.Close)

	ctx := context.Background()
	require.NoError(t, feed.SetSession(ctx, "old"))
	feed.mu.Lock()
	oldGen := feed.gen
	feed.mu.Unlock()

	require.NoError(t, feed.SetSession(ctx, "new"))

	// a message from the old stream that slipped in before teardown finished
	feed.appendLive(oldGen, "old", rec("stale", "GET"))
	// same session id but a superseded subscription
	feed.appendLive(oldGen, "new", rec("stale-2", "GET"))

	assert.Empty(t, feed.Snapshot())
}

func TestFeedSnapshotAfterLiveKeepsLiveInFront(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	feed := NewFeed(src)
	t.Cleanup(feed.Close)

	feed.mu.Lock()
	feed.sessionID = "s1"
	feed.gen = 1
	feed.mu.Unlock()

	feed.appendLive(1, "s1", rec("live", "POST"))
	feed.seed(1, "s1", []model.CapturedRequest{rec("live", "POST"), rec("old-2", "GET"), rec("old-1", "GET")})

	assert.Equal(t, []string{"live", "old-2", "old-1"}, logIDs(feed.Snapshot()))
}

func TestFeedErrors(t *testing.T) {
	t.Parallel()

	t.Run("snapshot", func(t *testing.T) {
		src := newFakeSource()
		src.snapErr = errors.New("boom")
		feed := NewFeed(src)
		t.Cleanup(feed.Close)

		err := feed.SetSession(context.Background(), "s1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch snapshot")
		assert.Equal(t, StateDisconnected, feed.State())

		// nothing from the abandoned stream may reach the log
		src.push("s1", rec("late", "POST"))
		assert.Never(t, func() bool { return feed.Len() > 0 }, 100*time.Millisecond, 5*time.Millisecond)
		assert.Equal(t, StateDisconnected, feed.State())
	})

	t.Run("stream", func(t *testing.T) {
		src := newFakeSource()
		src.streamErr = errors.New("refused")
		feed := NewFeed(src)
		t.Cleanup(feed.Close)

		err := feed.SetSession(context.Background(), "s1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open stream")
		assert.Equal(t, StateDisconnected, feed.State())
	})
}

func TestFeedCloseAndContextCancel(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.snapshots["s1"] = []model.CapturedRequest{rec("1", "GET")}
	feed := NewFeed(src)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, feed.SetSession(ctx, "s1"))
	assert.Equal(t, StateConnected, feed.State())

	cancel()
	require.Eventually(t, func() bool { return feed.State() == StateDisconnected }, time.Second, 5*time.Millisecond)

	feed.Close()
	assert.Equal(t, StateDisconnected, feed.State())
	assert.Equal(t, []string{"1"}, logIDs(feed.Snapshot()))
}

func TestFeedEmptySessionTearsDown(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.snapshots["s1"] = []model.CapturedRequest{rec("1", "GET")}
	feed := NewFeed(src)
	t.Cleanup(feed.Close)

	require.NoError(t, feed.SetSession(context.Background(), "s1"))
	require.NoError(t, feed.SetSession(context.Background(), ""))
	assert.Equal(t, StateDisconnected, feed.State())
	assert.Empty(t, feed.Snapshot())
}
