package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UnknownIP is the address recorded when the capturing server could not
// determine the client.
const UnknownIP = "unknown"

// CapturedRequest is one inbound request observed on a session endpoint.
type CapturedRequest struct {
	ID          string            `json:"id"`
	Method      string            `json:"method"`
	Timestamp   time.Time         `json:"timestamp"`
	IPAddress   string            `json:"ip_address"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	Body        *string           `json:"body"`

	StatusCode     int     `json:"status_code,omitempty"`
	ResponseTimeMs float64 `json:"response_time_ms,omitempty"`
}

// BodyText returns the body or "" when the request had none.
func (c *CapturedRequest) BodyText() string {
	if c.Body == nil {
		return ""
	}
	return *c.Body
}

type capturedWire struct {
	ID             string            `json:"id"`
	Method         string            `json:"method"`
	Timestamp      string            `json:"timestamp"`
	IPAddress      string            `json:"ip_address"`
	IP             string            `json:"ip"`
	Headers        map[string]string `json:"headers"`
	QueryParams    map[string]string `json:"query_params"`
	Body           *string           `json:"body"`
	StatusCode     int               `json:"status_code"`
	ResponseTimeMs float64           `json:"response_time_ms"`
}

// UnmarshalJSON accepts both the "ip" and "ip_address" spellings and
// timestamps with or without a zone offset.
func (c *CapturedRequest) UnmarshalJSON(data []byte) error {
	var w capturedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	ts, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return fmt.Errorf("captured request %q: %w", w.ID, err)
	}

	ip := w.IPAddress
	if ip == "" {
		ip = w.IP
	}
	if ip == "" {
		ip = UnknownIP
	}

	*c = CapturedRequest{
		ID:             w.ID,
		Method:         strings.ToUpper(w.Method),
		Timestamp:      ts,
		IPAddress:      ip,
		Headers:        w.Headers,
		QueryParams:    w.QueryParams,
		Body:           w.Body,
		StatusCode:     w.StatusCode,
		ResponseTimeMs: w.ResponseTimeMs,
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses ISO-8601 timestamps. Values without an offset are
// read as UTC. An empty string yields the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// Session is a capture endpoint owned by the user.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	WebhookURL   string    `json:"webhook_url"`
	CreatedAt    time.Time `json:"created_at"`
	RequestCount int       `json:"request_count"`
	IsActive     bool      `json:"is_active"`
}

// UnmarshalJSON tolerates naive created_at timestamps.
func (s *Session) UnmarshalJSON(data []byte) error {
	type sessionAlias Session
	var w struct {
		sessionAlias
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	created, err := ParseTimestamp(w.CreatedAt)
	if err != nil {
		return fmt.Errorf("session %q: %w", w.ID, err)
	}
	*s = Session(w.sessionAlias)
	s.CreatedAt = created
	return nil
}
