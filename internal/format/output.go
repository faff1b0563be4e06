package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"github.com/vedsharma/pingforge/internal/model"
)

// sanitizeOutput escapes control characters that could manipulate the
// terminal.
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
	warnColor      = color.New(color.FgYellow)
)

// PrintResponse prints an executed response. Network failures are shown as
// a labelled error block with the raw message.
func PrintResponse(resp model.ExecutedResponse, showHeaders bool) {
	if resp.IsNetworkError() {
		clientErrColor.Println(resp.StatusText)
		dimColor.Printf("  Time: %dms\n\n", resp.ElapsedMs)
		fmt.Println(sanitizeOutput(resp.Text))
		return
	}

	getStatusColor(resp.Status).Printf("%d %s\n", resp.Status, sanitizeOutput(resp.StatusText))
	if resp.BodyKind == model.BodyKindText {
		dimColor.Printf("  Time: %dms  Size: %s\n\n", resp.ElapsedMs, humanSize(resp.SizeBytes))
	} else {
		dimColor.Printf("  Time: %dms\n\n", resp.ElapsedMs)
	}

	if showHeaders {
		printHeaders(resp.Headers)
	}
	printBody(resp)
}

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	fmt.Println("Headers:")
	for _, key := range sortedKeys(headers) {
		headerKeyColor.Printf("  %s: ", sanitizeOutput(key))
		fmt.Println(sanitizeOutput(headers[key]))
	}
	fmt.Println()
}

func printBody(resp model.ExecutedResponse) {
	body := resp.BodyString()
	if body == "" {
		dimColor.Println("(empty body)")
		return
	}
	if resp.BodyKind == model.BodyKindJSON {
		body = prettyJSON(body)
	}
	fmt.Println(sanitizeOutput(body))
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		return s
	}
	return out.String()
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// PrintCompiledRequest prints a resolved request without sending it.
func PrintCompiledRequest(req *model.CompiledRequest) {
	methodColor.Printf("%s ", req.Method)
	urlColor.Println(sanitizeOutput(req.URL))
	printHeaders(req.Headers)
	if req.Body != nil {
		fmt.Println("Body:")
		fmt.Println(sanitizeOutput(prettyJSON(string(req.Body))))
	}
}

// PrintHistoryDetail prints full request/response details
func PrintHistoryDetail(e *model.HistoryEntry) {
	fmt.Println("Request:")
	fmt.Println(strings.Repeat("-", 40))
	methodColor.Printf("%s ", e.Method)
	urlColor.Println(sanitizeOutput(e.URL))
	dimColor.Printf("ID: %s\n", e.ID)
	dimColor.Printf("Time: %s\n\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))

	printHeaders(e.Headers)

	if e.Body != "" {
		fmt.Println("Body:")
		fmt.Println(sanitizeOutput(prettyJSON(e.Body)))
		fmt.Println()
	}

	if e.Response != nil {
		fmt.Println("\nResponse:")
		fmt.Println(strings.Repeat("-", 40))
		PrintResponse(*e.Response, true)
	}
}

// PrintHistoryList prints history in a compact format
func PrintHistoryList(entries []model.HistoryEntry, limit int) {
	if len(entries) == 0 {
		dimColor.Println("No requests in history")
		return
	}

	count := len(entries)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		e := entries[i]
		dimColor.Printf("[%d] ", i+1)
		methodColor.Printf("%-7s ", e.Method)

		url := e.URL
		if len(url) > 60 {
			url = url[:57] + "..."
		}
		urlColor.Printf("%-60s ", sanitizeOutput(url))

		if e.Response != nil {
			if e.Response.IsNetworkError() {
				clientErrColor.Print("ERR ")
			} else {
				getStatusColor(e.Response.Status).Printf("%d ", e.Response.Status)
			}
			dimColor.Printf("(%dms)", e.Response.ElapsedMs)
		}
		fmt.Println()
	}

	if limit > 0 && len(entries) > limit {
		dimColor.Printf("\n... and %d more requests\n", len(entries)-limit)
	}
}

// PrintCollectionList prints a list of collections
func PrintCollectionList(cols []model.Collection) {
	if len(cols) == 0 {
		dimColor.Println("No collections found")
		return
	}

	fmt.Println("Collections:")
	for _, col := range cols {
		headerKeyColor.Printf("  %s ", sanitizeOutput(col.Name))
		dimColor.Printf("(%d requests)", len(col.Requests))
		if col.RemoteID != "" {
			dimColor.Print(" synced")
		}
		fmt.Println()
	}
}

// PrintCollectionRequests prints requests in a collection
func PrintCollectionRequests(col *model.Collection) {
	if len(col.Requests) == 0 {
		dimColor.Printf("Collection '%s' is empty\n", sanitizeOutput(col.Name))
		return
	}

	headerKeyColor.Printf("Collection: %s\n", sanitizeOutput(col.Name))
	if col.Description != "" {
		dimColor.Println(sanitizeOutput(col.Description))
	}
	fmt.Println(strings.Repeat("-", 40))

	for i, req := range col.Requests {
		dimColor.Printf("[%d] ", i+1)
		if req.Name != "" {
			fmt.Printf("%s: ", sanitizeOutput(req.Name))
		}
		methodColor.Printf("%s ", req.Request.Method)
		urlColor.Println(sanitizeOutput(req.Request.URL))
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Printf("✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Printf("✗ %s\n", msg)
}

func PrintWarning(msg string) {
	warnColor.Printf("! %s\n", msg)
}

func PrintInfo(msg string) {
	dimColor.Println(msg)
}

// PrintAliasList prints aliases sorted by name
func PrintAliasList(aliases *model.Aliases) {
	if len(aliases.Aliases) == 0 {
		dimColor.Println("No aliases found")
		return
	}

	fmt.Println("Aliases:")
	for _, name := range sortedKeys(aliases.Aliases) {
		PrintAlias(name, aliases.Aliases[name])
	}
}

// PrintAlias prints a single alias
func PrintAlias(name, url string) {
	headerKeyColor.Printf("  %s ", sanitizeOutput(name))
	dimColor.Print("→ ")
	urlColor.Println(sanitizeOutput(url))
}
