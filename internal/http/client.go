package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vedsharma/pingforge/internal/model"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// Default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	networkErrorText = "Network Error"
)

// Client executes compiled requests. It never returns an error: transport
// failures come back as synthetic responses.
type Client struct {
	client *http.Client
	logger *slog.Logger
}

type Option func(*Client)

// WithTimeout bounds every execution; a zero value keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new HTTP client
func NewClient(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send validates and compiles m, then executes it. Only validation failures
// are returned as errors.
func (c *Client) Send(ctx context.Context, m model.RequestModel, r Resolver) (*model.CompiledRequest, model.ExecutedResponse, error) {
	compiled, err := Build(m, r)
	if err != nil {
		return nil, model.ExecutedResponse{}, err
	}
	return compiled, c.Execute(ctx, compiled), nil
}

// Execute sends a compiled request and classifies the response body.
func (c *Client) Execute(ctx context.Context, req *model.CompiledRequest) model.ExecutedResponse {
	if req == nil {
		return networkError("no request to execute", 0)
	}

	start := time.Now()
	if err := c.checkTarget(req.URL); err != nil {
		return networkError(err.Error(), time.Since(start))
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, bodyReader)
	if err != nil {
		return networkError(err.Error(), time.Since(start))
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "url", req.URL, "error", err)
		return networkError(err.Error(), elapsed)
	}
	defer resp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return networkError(err.Error(), elapsed)
	}
	if int64(len(respBody)) > MaxResponseSize {
		respBody = respBody[:MaxResponseSize]
		c.logger.Warn("response body truncated", "limit_bytes", MaxResponseSize, "url", req.URL)
	}

	out := model.ExecutedResponse{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    flattenHeaders(resp.Header),
		ElapsedMs:  elapsed.Milliseconds(),
	}
	classifyBody(&out, resp.Header.Get("Content-Type"), respBody)
	return out
}

// classifyBody keeps JSON bodies as raw JSON when they parse and falls back
// to text otherwise.
func classifyBody(out *model.ExecutedResponse, contentType string, body []byte) {
	if strings.Contains(strings.ToLower(contentType), "application/json") && json.Valid(body) {
		out.BodyKind = model.BodyKindJSON
		out.JSON = json.RawMessage(body)
		return
	}
	out.BodyKind = model.BodyKindText
	out.Text = string(body)
	out.SizeBytes = len(body)
}

func networkError(msg string, elapsed time.Duration) model.ExecutedResponse {
	return model.ExecutedResponse{
		Status:     model.StatusNetworkError,
		StatusText: networkErrorText,
		Headers:    map[string]string{},
		BodyKind:   model.BodyKindError,
		Text:       msg,
		ElapsedMs:  elapsed.Milliseconds(),
	}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// flattenHeaders keeps the first value of each header
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
