package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/vedsharma/pingforge/internal/model"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, WithToken("tok"), WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestStreamURLFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://pingforge.onrender.com", want: "wss://pingforge.onrender.com"},
		{in: "http://localhost:8000/", want: "ws://localhost:8000"},
		{in: "ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := StreamURLFor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotAcceptsWrapperAndArray(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"wrapped": `{"requests":[{"id":"r2","method":"post","timestamp":"2025-03-10T11:00:00.123456","ip":"10.0.0.2","headers":{},"query_params":{},"body":"x"},{"id":"r1","method":"GET","timestamp":"2025-03-10T10:00:00Z","ip_address":"10.0.0.1","headers":{},"query_params":{},"body":null}]}`,
		"bare":    `[{"id":"r2","method":"POST","timestamp":"2025-03-10T11:00:00.123456","ip":"10.0.0.2","body":"x"},{"id":"r1","method":"GET","timestamp":"2025-03-10T10:00:00Z","ip_address":"10.0.0.1"}]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/sessions/abc/requests", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))

			records, err := c.Snapshot(context.Background(), "abc")
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "r2", records[0].ID)
			assert.Equal(t, "POST", records[0].Method)
			assert.Equal(t, "10.0.0.2", records[0].IPAddress)
			assert.Equal(t, "x", records[0].BodyText())
			assert.Equal(t, time.Date(2025, 3, 10, 11, 0, 0, 123456000, time.UTC), records[0].Timestamp)
			assert.Nil(t, records[1].Body)
		})
	}
}

func TestStatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"detail":"Could not validate credentials"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"detail":"Session not found"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
				assert.Contains(t, err.Error(), "Session not found")
			},
		},
		{
			name:   "server error",
			status: http.StatusForbidden,
			body:   `{"detail":"Not authorized to view this session"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusForbidden, apiErr.Status)
				assert.Equal(t, "Not authorized to view this session", apiErr.Detail)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			_, err := c.Snapshot(context.Background(), "abc")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestReplayAndScan(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/sessions/s1/replay":
			var in map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "r9", in["request_id"])
			assert.Equal(t, "https://target.test/hook", in["target_url"])
			_, _ = w.Write([]byte(`{"success":false,"error":"Connection refused by target"}`))
		case "/api/security-scan":
			var in model.ScanRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "GET", in.Method)
			assert.NotNil(t, in.Headers)
			_, _ = w.Write([]byte(`{"scan_id":"sc1","result":{"target_url":"https://api.test","scan_duration":1.5,"total_findings":1,"findings_by_level":{"high":1},"findings":[{"vulnerability_type":"missing_security_headers","level":"high","title":"Missing HSTS","description":"d","evidence":"e","recommendation":"r","cwe_id":"CWE-319"}],"scan_timestamp":"2025-03-10T10:00:00"}}`))
		default:
			http.NotFound(w, r)
		}
	}))

	res, err := c.Replay(context.Background(), "s1", "r9", "https://target.test/hook")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Connection refused by target", res.Error)

	report, err := c.SecurityScan(context.Background(), model.ScanRequest{TargetURL: "https://api.test", Method: "GET"})
	require.NoError(t, err)
	assert.Equal(t, "sc1", report.ScanID)
	require.Len(t, report.Result.Findings, 1)
	assert.Equal(t, "CWE-319", report.Result.Findings[0].CWEID)
	assert.Equal(t, 1, report.Result.FindingsByLevel["high"])
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), report.ScannedAt())
}

func TestEnvironmentAndCollectionCalls(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/environments/e1":
			var in map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "staging", in["name"])
			assert.Len(t, in["variables"], 1)
			_, _ = w.Write([]byte(`{"id":"e1","name":"staging","variables":[{"key":"host","value":"api.test","enabled":true}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections":
			_, _ = w.Write([]byte(`{"id":"c1","name":"smoke","requests":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections/c1/requests":
			var in map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Contains(t, in, "request_data")
			_, _ = w.Write([]byte(`{"id":"q1","name":"health","request_data":{"method":"GET","url":"{{host}}/health"}}`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{"message":"deleted"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := context.Background()

	env := model.Environment{Name: "staging"}
	env.Set("host", "api.test")
	got, err := c.UpdateEnvironment(ctx, "e1", env)
	require.NoError(t, err)
	v, ok := got.Lookup("host")
	assert.True(t, ok)
	assert.Equal(t, "api.test", v)

	col, err := c.CreateCollection(ctx, model.Collection{Name: "smoke"})
	require.NoError(t, err)
	saved, err := c.AddCollectionRequest(ctx, col.ID, model.SavedRequest{
		Name:    "health",
		Request: model.RequestModel{Method: model.MethodGet, URL: "{{host}}/health"},
	})
	require.NoError(t, err)
	assert.Equal(t, "q1", saved.ID)
	assert.Equal(t, "{{host}}/health", saved.Request.URL)

	require.NoError(t, c.DeleteSession(ctx, "s1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"PUT /environments/e1",
		"POST /collections",
		"POST /collections/c1/requests",
		"DELETE /sessions/s1",
	}, calls)
}

func TestStream(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/s1", r.URL.Path)
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		msgs := []string{
			`{"id":"a","method":"post","timestamp":"2025-03-10T10:00:00","ip":"1.2.3.4"}`,
			`not json`,
			`{"id":"b","method":"GET","timestamp":"2025-03-10T10:00:01Z","ip_address":"1.2.3.5"}`,
		}
		for _, m := range msgs {
			if err := conn.Write(ctx, websocket.MessageText, []byte(m)); err != nil {
				return
			}
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events, err := c.Stream(ctx, "s1")
	require.NoError(t, err)

	var ids []string
	for rec := range events {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestStreamClosesOnCancel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			if _, _, err := conn.Read(context.Background()); err != nil {
				return
			}
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	events, err := c.Stream(ctx, "s1")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream channel not closed after cancel")
	}
}
