package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/pingforge/internal/model"
)

func strPtr(s string) *string { return &s }

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleLog() []model.CapturedRequest {
	return []model.CapturedRequest{
		{
			ID: "1", Method: "GET", IPAddress: "10.0.0.1",
			Timestamp: now.Add(-10 * time.Minute),
			Headers:   map[string]string{"User-Agent": "curl/8.0"},
		},
		{
			ID: "2", Method: "POST", IPAddress: "10.0.0.2",
			Timestamp: now.Add(-3 * time.Hour),
			Headers:   map[string]string{"Content-Type": "application/json"},
			Body:      strPtr(`{"event":"Invoice.Paid"}`),
		},
		{
			ID: "3", Method: "POST", IPAddress: "192.168.1.5",
			Timestamp: now.Add(-48 * time.Hour),
			Headers:   map[string]string{"X-Signature": "abc"},
			Body:      strPtr("plain"),
		},
		{
			ID: "4", Method: "DELETE", IPAddress: "unknown",
			Timestamp: now.Add(-30 * 24 * time.Hour),
		},
	}
}

func ids(log []model.CapturedRequest) []string {
	out := make([]string, 0, len(log))
	for _, r := range log {
		out = append(out, r.ID)
	}
	return out
}

func TestApplyEmptySpecIsIdentity(t *testing.T) {
	t.Parallel()

	log := sampleLog()
	assert.Equal(t, log, ApplyAt(log, model.FilterSpec{}, now))
	assert.Equal(t, log, ApplyAt(log, model.FilterSpec{
		Methods:   model.NewSet(),
		IPs:       model.NewSet(),
		TimeRange: model.RangeAll,
		Search:    "   ",
	}, now))
	assert.Nil(t, ApplyAt(nil, model.FilterSpec{Search: "x"}, now))
	empty := []model.CapturedRequest{}
	assert.Equal(t, empty, ApplyAt(empty, model.FilterSpec{}, now))
}

func TestApplyMethods(t *testing.T) {
	t.Parallel()

	log := []model.CapturedRequest{{ID: "1", Method: "GET"}, {ID: "2", Method: "POST"}}
	got := ApplyAt(log, model.FilterSpec{Methods: model.NewSet("POST")}, now)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got = ApplyAt(log, model.FilterSpec{Methods: model.NewSet("post")}, now)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestApplySearch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		search string
		want   []string
	}{
		{"invoice.paid", []string{"2"}},
		{"CURL", []string{"1"}},
		{"192.168", []string{"3"}},
		{"x-signature", []string{"3"}},
		{"application/json", []string{"2"}},
		{"no such thing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got := ApplyAt(sampleLog(), model.FilterSpec{Search: tt.search}, now)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyIPs(t *testing.T) {
	t.Parallel()

	got := ApplyAt(sampleLog(), model.FilterSpec{IPs: model.NewSet("10.0.0.2", "unknown")}, now)
	assert.Equal(t, []string{"2", "4"}, ids(got))
}

func TestApplyTimeRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		r    model.TimeRange
		want []string
	}{
		{model.RangeLastHour, []string{"1"}},
		{model.RangeLastDay, []string{"1", "2"}},
		{model.RangeLastWeek, []string{"1", "2", "3"}},
		{model.RangeAll, []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			got := ApplyAt(sampleLog(), model.FilterSpec{TimeRange: tt.r}, now)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyExplicitDatesIncludeWholeLastDay(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	log := []model.CapturedRequest{
		{ID: "late", Timestamp: time.Date(2025, 3, 8, 23, 59, 59, 0, time.UTC)},
		{ID: "early", Timestamp: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)},
		{ID: "next", Timestamp: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{ID: "before", Timestamp: time.Date(2025, 3, 7, 23, 59, 59, 0, time.UTC)},
	}

	got := ApplyAt(log, model.FilterSpec{DateFrom: &from, DateTo: &to}, now)
	assert.Equal(t, []string{"late", "early"}, ids(got))
}

func TestApplyCombinedAndStable(t *testing.T) {
	t.Parallel()

	log := sampleLog()
	original := sampleLog()
	spec := model.FilterSpec{
		Search:    "curl",
		Methods:   model.NewSet("POST", "GET"),
		TimeRange: model.RangeLastWeek,
	}

	first := ApplyAt(log, spec, now)
	assert.LessOrEqual(t, len(first), len(log))
	assert.Equal(t, first, ApplyAt(first, spec, now))
	assert.Equal(t, original, log)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	stats := Summarize(sampleLog())
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 4, stats.UniqueIPs)
	assert.Equal(t, map[string]int{"GET": 1, "POST": 2, "DELETE": 1}, stats.MethodCounts)
	assert.Equal(t, "POST", stats.MostCommonMethod)

	empty := Summarize(nil)
	assert.Equal(t, "None", empty.MostCommonMethod)
	assert.Zero(t, empty.Total)

	tie := Summarize([]model.CapturedRequest{{Method: "PUT"}, {Method: "GET"}})
	assert.Equal(t, "PUT", tie.MostCommonMethod)
}
