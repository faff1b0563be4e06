package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/pingforge/internal/model"
)

func TestExecuteClassifiesBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = io.WriteString(w, `{"ok":true}`)
		case "/broken":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"ok":`)
		default:
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusTeapot)
			_, _ = io.WriteString(w, "short and stout")
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient()
	ctx := context.Background()

	t.Run("json", func(t *testing.T) {
		resp := client.Execute(ctx, &model.CompiledRequest{Method: model.MethodGet, URL: srv.URL + "/json"})
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "OK", resp.StatusText)
		assert.Equal(t, model.BodyKindJSON, resp.BodyKind)
		assert.JSONEq(t, `{"ok":true}`, string(resp.JSON))
		assert.Zero(t, resp.SizeBytes)
		assert.Contains(t, resp.Headers["Content-Type"], "application/json")
	})

	t.Run("invalid_json_falls_back_to_text", func(t *testing.T) {
		resp := client.Execute(ctx, &model.CompiledRequest{Method: model.MethodGet, URL: srv.URL + "/broken"})
		assert.Equal(t, model.BodyKindText, resp.BodyKind)
		assert.Equal(t, `{"ok":`, resp.Text)
		assert.Equal(t, 6, resp.SizeBytes)
	})

	t.Run("text", func(t *testing.T) {
		resp := client.Execute(ctx, &model.CompiledRequest{Method: model.MethodGet, URL: srv.URL + "/text"})
		assert.Equal(t, http.StatusTeapot, resp.Status)
		assert.Equal(t, "I'm a teapot", resp.StatusText)
		assert.Equal(t, model.BodyKindText, resp.BodyKind)
		assert.Equal(t, "short and stout", resp.Text)
		assert.Equal(t, len("short and stout"), resp.SizeBytes)
	})
}

func TestExecuteSendsHeadersAndBody(t *testing.T) {
	t.Parallel()

	var gotMethod, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	compiled, err := Build(model.RequestModel{
		Method: model.MethodPost,
		URL:    srv.URL + "/items",
		Body:   model.BodySpec{Type: model.BodyJSON, Content: `{"id":1}`},
		Auth:   model.AuthSpec{Type: model.AuthBearer, Token: "abc"},
	}, nil)
	require.NoError(t, err)

	resp := NewClient().Execute(context.Background(), compiled)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"id":1}`, gotBody)
}

func TestExecuteNeverFails(t *testing.T) {
	t.Parallel()

	client := NewClient(WithTimeout(2 * time.Second))
	requests := []*model.CompiledRequest{
		{Method: model.MethodGet, URL: "http://127.0.0.1:1/unreachable"},
		{Method: model.MethodGet, URL: "::not a url"},
		{Method: model.MethodGet, URL: "ftp://example.com/file"},
		{Method: model.MethodGet, URL: "http://169.254.169.254/latest/meta-data"},
		nil,
	}

	for _, req := range requests {
		resp := client.Execute(context.Background(), req)
		assert.Equal(t, model.StatusNetworkError, resp.Status)
		assert.Equal(t, "Network Error", resp.StatusText)
		assert.Equal(t, model.BodyKindError, resp.BodyKind)
		assert.NotEmpty(t, resp.Text)
		assert.True(t, resp.IsNetworkError())
	}
}

func TestExecuteTimeoutIsNetworkError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	resp := NewClient(WithTimeout(50*time.Millisecond)).Execute(context.Background(),
		&model.CompiledRequest{Method: model.MethodGet, URL: srv.URL})
	assert.True(t, resp.IsNetworkError())
}

func TestSendReportsValidationErrors(t *testing.T) {
	t.Parallel()

	_, _, err := NewClient().Send(context.Background(), model.RequestModel{Method: model.MethodGet}, nil)
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestValidateTarget(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateTarget("https://example.com/hook"))
	assert.ErrorIs(t, ValidateTarget("example.com/hook"), ErrInvalidURL)
	assert.ErrorIs(t, ValidateTarget("file:///etc/passwd"), ErrInvalidURL)
	assert.Error(t, ValidateTarget("http://metadata.google.internal/"))
}
