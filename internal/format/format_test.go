package format

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/vedsharma/pingforge/internal/filter"
	"github.com/vedsharma/pingforge/internal/mask"
	"github.com/vedsharma/pingforge/internal/model"
)

func init() {
	color.NoColor = true
}

func TestSanitizeOutput(t *testing.T) {
	assert.Equal(t, "a\\x1b[31mb\tc\\x07", sanitizeOutput("a\x1b[31mb\tc\x07"))
}

func TestPrintCaptureTableMasksForDisplayOnly(t *testing.T) {
	body := `{"event":"push"}`
	log := []model.CapturedRequest{{
		ID: "r1", Method: "POST", IPAddress: "192.168.1.5",
		Timestamp: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), Body: &body,
	}}

	var buf bytes.Buffer
	PrintCaptureTable(&buf, log, func(ip string) string { return mask.Mask(ip, mask.PolicyLastOctet, true) })

	out := buf.String()
	assert.Contains(t, out, "192.168.1.***")
	assert.NotContains(t, out, "192.168.1.5")
	assert.Contains(t, out, `{"event":"push"}`)
	assert.Equal(t, "192.168.1.5", log[0].IPAddress)
}

func TestPrintCaptureTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintCaptureTable(&buf, nil, nil)
	assert.Contains(t, buf.String(), "No captured requests match")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	PrintStats(&buf, filter.Stats{Total: 3, UniqueIPs: 2, MethodCounts: map[string]int{"GET": 2, "POST": 1}, MostCommonMethod: "GET"})
	assert.Contains(t, buf.String(), "3 requests, 2 unique IPs, most common method GET")
	assert.Contains(t, buf.String(), "GET=2  POST=1")
}

func TestPrintRules(t *testing.T) {
	var buf bytes.Buffer
	PrintRules(&buf, []model.NotificationRule{{
		ID: "r1", Name: "errors", Condition: "status_code", Operator: "greater_than", Value: "499",
		EmailRecipients: []string{"a@example.com", "b@example.com"}, CooldownMinutes: 5, IsActive: true,
	}})
	out := buf.String()
	assert.Contains(t, out, "status_code greater_than 499")
	assert.Contains(t, out, "a@example.com, b@example.com")
	assert.Contains(t, out, "5m")

	buf.Reset()
	PrintRules(&buf, nil)
	assert.Contains(t, buf.String(), "No notification rules")
}

func TestSortFindings(t *testing.T) {
	got := sortFindings([]model.Finding{
		{Title: "a", Level: "low"},
		{Title: "b", Level: "weird"},
		{Title: "c", Level: "critical"},
		{Title: "d", Level: "low"},
	})
	titles := make([]string, 0, len(got))
	for _, f := range got {
		titles = append(titles, f.Title)
	}
	assert.Equal(t, []string{"c", "a", "d", "b"}, titles)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b", 10))
	assert.Equal(t, "abcdefg...", preview("abcdefghijklmnop", 10))
}
