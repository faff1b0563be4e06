// Package filter derives views of a capture log. Nothing here mutates the
// records it is given, and output order always follows input order.
package filter

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/vedsharma/pingforge/internal/model"
)

// Apply filters log against spec, evaluating relative windows from now.
func Apply(log []model.CapturedRequest, spec model.FilterSpec) []model.CapturedRequest {
	return ApplyAt(log, spec, time.Now())
}

// ApplyAt is Apply with an explicit evaluation time. Search, method, IP and
// time constraints are AND-combined; empty sets do not constrain.
func ApplyAt(log []model.CapturedRequest, spec model.FilterSpec, now time.Time) []model.CapturedRequest {
	if len(log) == 0 {
		return log[:0:0]
	}

	m := newMatcher(spec, now)
	out := make([]model.CapturedRequest, 0, len(log))
	for i := range log {
		if m.match(&log[i]) {
			out = append(out, log[i])
		}
	}
	return out
}

type matcher struct {
	search  string
	methods map[string]struct{}
	ips     map[string]struct{}

	after    time.Time
	hasAfter bool
	from     time.Time
	hasFrom  bool
	until    time.Time
	hasUntil bool
}

func newMatcher(spec model.FilterSpec, now time.Time) matcher {
	m := matcher{
		search:  strings.ToLower(strings.TrimSpace(spec.Search)),
		methods: upperSet(spec.Methods),
		ips:     spec.IPs,
	}
	if w := spec.TimeRange.Window(); w > 0 {
		m.after = now.Add(-w)
		m.hasAfter = true
	}
	if spec.DateFrom != nil {
		m.from = startOfDay(*spec.DateFrom)
		m.hasFrom = true
	}
	if spec.DateTo != nil {
		m.until = startOfDay(*spec.DateTo).AddDate(0, 0, 1)
		m.hasUntil = true
	}
	return m
}

func (m *matcher) match(r *model.CapturedRequest) bool {
	if m.search != "" && !m.matchSearch(r) {
		return false
	}
	if len(m.methods) > 0 {
		if _, ok := m.methods[strings.ToUpper(r.Method)]; !ok {
			return false
		}
	}
	if len(m.ips) > 0 {
		if _, ok := m.ips[r.IPAddress]; !ok {
			return false
		}
	}
	if m.hasAfter && !r.Timestamp.After(m.after) {
		return false
	}
	if m.hasFrom && r.Timestamp.Before(m.from) {
		return false
	}
	if m.hasUntil && !r.Timestamp.Before(m.until) {
		return false
	}
	return true
}

func (m *matcher) matchSearch(r *model.CapturedRequest) bool {
	if strings.Contains(strings.ToLower(r.BodyText()), m.search) {
		return true
	}
	if strings.Contains(strings.ToLower(r.IPAddress), m.search) {
		return true
	}
	return strings.Contains(strings.ToLower(serializeHeaders(r.Headers)), m.search)
}

// serializeHeaders renders headers as a JSON object with sorted keys.
func serializeHeaders(h map[string]string) string {
	if len(h) == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(h); err != nil {
		return ""
	}
	return buf.String()
}

func upperSet(set map[string]struct{}) map[string]struct{} {
	if len(set) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(set))
	for k := range set {
		out[strings.ToUpper(k)] = struct{}{}
	}
	return out
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
