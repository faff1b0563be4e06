package format

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vedsharma/pingforge/internal/filter"
	"github.com/vedsharma/pingforge/internal/model"
)

const previewWidth = 40

func itoa(n int) string { return strconv.Itoa(n) }

// IPFunc renders an address for display, typically a masker.
type IPFunc func(ip string) string

func identityIP(ip string) string { return ip }

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func localTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// PrintCaptureTable prints the capture log, newest first, with addresses
// passed through ip.
func PrintCaptureTable(w io.Writer, log []model.CapturedRequest, ip IPFunc) {
	if ip == nil {
		ip = identityIP
	}
	if len(log) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No captured requests match"))
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Time", "Method", "IP", "Body"})
	for _, r := range log {
		t.AppendRow(table.Row{
			sanitizeOutput(r.ID),
			localTime(r.Timestamp),
			sanitizeOutput(r.Method),
			sanitizeOutput(ip(r.IPAddress)),
			sanitizeOutput(preview(r.BodyText(), previewWidth)),
		})
	}
	t.Render()
}

// PrintCaptureLine prints one live record as it arrives.
func PrintCaptureLine(w io.Writer, r model.CapturedRequest, ip IPFunc) {
	if ip == nil {
		ip = identityIP
	}
	fmt.Fprintf(w, "%s %s %s %s %s\n",
		dimColor.Sprint(localTime(r.Timestamp)),
		methodColor.Sprintf("%-7s", sanitizeOutput(r.Method)),
		sanitizeOutput(ip(r.IPAddress)),
		dimColor.Sprint(sanitizeOutput(r.ID)),
		sanitizeOutput(preview(r.BodyText(), previewWidth)),
	)
}

// PrintCaptureDetail prints every field of a captured request.
func PrintCaptureDetail(w io.Writer, r model.CapturedRequest, ip IPFunc) {
	if ip == nil {
		ip = identityIP
	}
	fmt.Fprintf(w, "%s %s\n", methodColor.Sprint(sanitizeOutput(r.Method)), dimColor.Sprint(sanitizeOutput(r.ID)))
	fmt.Fprintf(w, "Time: %s\n", localTime(r.Timestamp))
	fmt.Fprintf(w, "From: %s\n", sanitizeOutput(ip(r.IPAddress)))
	if r.StatusCode != 0 {
		fmt.Fprintf(w, "Answered: %d in %.1fms\n", r.StatusCode, r.ResponseTimeMs)
	}

	writeMap(w, "Query", r.QueryParams)
	writeMap(w, "Headers", r.Headers)

	fmt.Fprintln(w, "Body:")
	if r.Body == nil || *r.Body == "" {
		fmt.Fprintln(w, dimColor.Sprint("(empty body)"))
		return
	}
	fmt.Fprintln(w, sanitizeOutput(prettyJSON(*r.Body)))
}

func writeMap(w io.Writer, title string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(w, "  %s: %s\n", headerKeyColor.Sprint(sanitizeOutput(k)), sanitizeOutput(m[k]))
	}
}

// PrintStats prints the summary of a filtered log.
func PrintStats(w io.Writer, s filter.Stats) {
	methods := make([]string, 0, len(s.MethodCounts))
	for m := range s.MethodCounts {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	parts := make([]string, 0, len(methods))
	for _, m := range methods {
		parts = append(parts, fmt.Sprintf("%s=%d", m, s.MethodCounts[m]))
	}

	fmt.Fprintf(w, "%d requests, %d unique IPs, most common method %s\n", s.Total, s.UniqueIPs, s.MostCommonMethod)
	if len(parts) > 0 {
		fmt.Fprintln(w, dimColor.Sprint(strings.Join(parts, "  ")))
	}
}

// PrintSessions lists capture sessions with absolute webhook URLs.
func PrintSessions(w io.Writer, sessions []model.Session, webhookURL func(string) string) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No sessions found"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Requests", "Created", "Webhook URL"})
	for _, s := range sessions {
		t.AppendRow(table.Row{
			sanitizeOutput(s.ID),
			sanitizeOutput(s.Name),
			s.RequestCount,
			localTime(s.CreatedAt),
			sanitizeOutput(webhookURL(s.WebhookURL)),
		})
	}
	t.Render()
}

// PrintRules lists a session's notification rules.
func PrintRules(w io.Writer, rules []model.NotificationRule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No notification rules"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Alert when", "Notify", "Cooldown", "Active"})
	for _, r := range rules {
		active := "no"
		if r.IsActive {
			active = "yes"
		}
		t.AppendRow(table.Row{
			sanitizeOutput(r.ID),
			sanitizeOutput(r.Name),
			sanitizeOutput(fmt.Sprintf("%s %s %s", r.Condition, r.Operator, r.Value)),
			sanitizeOutput(strings.Join(r.EmailRecipients, ", ")),
			fmt.Sprintf("%dm", r.CooldownMinutes),
			active,
		})
	}
	t.Render()
}
