package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vedsharma/pingforge/internal/model"
)

func (c *Client) ListSessions(ctx context.Context) ([]model.Session, error) {
	var out []model.Session
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSession(ctx context.Context, name, description string) (*model.Session, error) {
	in := map[string]any{"name": name}
	if description != "" {
		in["description"] = description
	}
	var out model.Session
	if err := c.do(ctx, http.MethodPost, "/sessions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+escape(id), nil, nil)
}

// Snapshot fetches the captured requests already stored for a session in
// server order. Both the {"requests": [...]} wrapper and a bare array are
// accepted.
func (c *Client) Snapshot(ctx context.Context, sessionID string) ([]model.CapturedRequest, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/sessions/"+escape(sessionID)+"/requests", nil, &raw); err != nil {
		return nil, err
	}
	return decodeSnapshot(raw)
}

func decodeSnapshot(raw json.RawMessage) ([]model.CapturedRequest, error) {
	raw = bytes.TrimSpace(raw)
	var records []model.CapturedRequest
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		return records, nil
	}
	var wrapped struct {
		Requests []model.CapturedRequest `json:"requests"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return wrapped.Requests, nil
}

// Replay asks the backend to re-send a captured request to target. A
// server-side failure comes back as data with Success false.
func (c *Client) Replay(ctx context.Context, sessionID, requestID, target string) (*model.ReplayResult, error) {
	in := map[string]string{"request_id": requestID, "target_url": target}
	var out model.ReplayResult
	if err := c.do(ctx, http.MethodPost, "/sessions/"+escape(sessionID)+"/replay", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SecurityScan(ctx context.Context, req model.ScanRequest) (*model.ScanReport, error) {
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	var out model.ScanReport
	if err := c.do(ctx, http.MethodPost, "/api/security-scan", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
