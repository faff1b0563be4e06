package format

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newTable returns a table writer mirrored to w (stdout when nil). Box
// drawing and colours follow fatih/color's terminal detection so piped
// output stays plain ASCII.
func newTable(w io.Writer) table.Writer {
	if w == nil {
		w = os.Stdout
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if color.NoColor {
		t.SetStyle(styleSimple())
	} else {
		t.SetStyle(styleLight())
	}
	return t
}

func styleLight() table.Style {
	s := table.StyleLight
	s.Color = table.ColorOptions{Header: text.Colors{text.Bold}}
	s.Format = table.FormatOptions{Header: text.FormatUpper}
	s.Options = table.Options{DrawBorder: true, SeparateColumns: true, SeparateHeader: true}
	return s
}

func styleSimple() table.Style {
	s := table.StyleDefault
	s.Format = table.FormatOptions{Header: text.FormatUpper}
	s.Options = table.Options{DrawBorder: true, SeparateColumns: true, SeparateHeader: true}
	return s
}

// statusCell colours an HTTP status for table cells.
func statusCell(status int) string {
	if color.NoColor || status == 0 {
		return itoa(status)
	}
	var c text.Color
	switch {
	case status >= 200 && status < 300:
		c = text.FgGreen
	case status >= 300 && status < 400:
		c = text.FgCyan
	case status >= 400 && status < 500:
		c = text.FgYellow
	default:
		c = text.FgRed
	}
	return c.Sprint(itoa(status))
}

func levelCell(level string) string {
	if color.NoColor {
		return level
	}
	switch level {
	case "critical":
		return text.Colors{text.FgRed, text.Bold}.Sprint(level)
	case "high":
		return text.FgRed.Sprint(level)
	case "medium":
		return text.FgYellow.Sprint(level)
	case "low":
		return text.FgCyan.Sprint(level)
	}
	return text.Faint.Sprint(level)
}
