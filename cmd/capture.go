package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/capture"
	"github.com/vedsharma/pingforge/internal/filter"
	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/model"
)

const dateLayout = "2006-01-02"

var (
	captureSearch  string
	captureMethods []string
	captureIPs     []string
	captureRange   string
	captureFrom    string
	captureTo      string
	captureJSON    bool
	captureOutput  string
)

func init() {
	captureCmd := &cobra.Command{
		Use:     "capture",
		Aliases: []string{"cap"},
		Short:   "Inspect requests captured by a session",
	}

	listCmd := &cobra.Command{
		Use:   "list <session>",
		Short: "List captured requests, newest first",
		Args:  cobra.ExactArgs(1),
		Run:   runCaptureList,
	}
	addFilterFlags(listCmd)
	listCmd.Flags().BoolVar(&captureJSON, "json", false, "Print the filtered log as JSON (addresses unmasked)")

	watchCmd := &cobra.Command{
		Use:   "watch <session>",
		Short: "Print captured requests as they arrive",
		Long: `Print the captured log, then every new request matching the filters
until interrupted with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		Run:  runCaptureWatch,
	}
	addFilterFlags(watchCmd)

	showCmd := &cobra.Command{
		Use:   "show <session> <request-id>",
		Short: "Show one captured request in full",
		Args:  cobra.ExactArgs(2),
		Run:   runCaptureShow,
	}

	exportCmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Export the filtered log as JSON",
		Args:  cobra.ExactArgs(1),
		Run:   runCaptureExport,
	}
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "Write to file instead of stdout")

	captureCmd.AddCommand(listCmd, watchCmd, showCmd, exportCmd)
	rootCmd.AddCommand(captureCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&captureSearch, "search", "", "Case-insensitive match on body, headers and IP")
	cmd.Flags().StringSliceVar(&captureMethods, "method", nil, "Only these methods (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&captureIPs, "ip", nil, "Only these client addresses")
	cmd.Flags().StringVar(&captureRange, "range", "all", "Relative window: all, 1h, 24h, 7d")
	cmd.Flags().StringVar(&captureFrom, "from", "", "First day to include (YYYY-MM-DD, local time)")
	cmd.Flags().StringVar(&captureTo, "to", "", "Last day to include (YYYY-MM-DD, local time)")
}

func filterFromFlags() (model.FilterSpec, error) {
	spec := model.FilterSpec{
		Search:  captureSearch,
		Methods: model.NewSet(captureMethods...),
		IPs:     model.NewSet(captureIPs...),
	}

	tr, err := model.ParseTimeRange(captureRange)
	if err != nil {
		return spec, err
	}
	spec.TimeRange = tr

	if spec.DateFrom, err = parseDay("--from", captureFrom); err != nil {
		return spec, err
	}
	if spec.DateTo, err = parseDay("--to", captureTo); err != nil {
		return spec, err
	}
	return spec, nil
}

func parseDay(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%s %q must be YYYY-MM-DD", flag, s)
	}
	return &t, nil
}

func mustFilter() model.FilterSpec {
	spec, err := filterFromFlags()
	exitOnError("Invalid filter", err)
	return spec
}

func fetchCaptures(sessionID string) []model.CapturedRequest {
	ctx, cancel := signalContext()
	defer cancel()

	log, err := newBackend().Snapshot(ctx, sessionID)
	exitOnError("Failed to load captured requests", err)
	return log
}

func runCaptureList(cmd *cobra.Command, args []string) {
	spec := mustFilter()
	view := filter.Apply(fetchCaptures(args[0]), spec)

	if captureJSON {
		exitOnError("Failed to encode", writeCapturesJSON(os.Stdout, view))
		return
	}

	masker := newMasker()
	format.PrintCaptureTable(os.Stdout, view, masker.Apply)
	format.PrintStats(os.Stdout, filter.Summarize(view))
}

func runCaptureShow(cmd *cobra.Command, args []string) {
	sessionID, requestID := args[0], args[1]
	for _, r := range fetchCaptures(sessionID) {
		if r.ID == requestID {
			format.PrintCaptureDetail(os.Stdout, r, newMasker().Apply)
			return
		}
	}
	format.PrintError(fmt.Sprintf("Captured request '%s' not found in session %s", requestID, sessionID))
	os.Exit(1)
}

func runCaptureExport(cmd *cobra.Command, args []string) {
	spec := mustFilter()
	view := filter.Apply(fetchCaptures(args[0]), spec)

	if captureOutput == "" {
		exitOnError("Failed to encode", writeCapturesJSON(os.Stdout, view))
		return
	}

	f, err := os.OpenFile(captureOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	exitOnError("Failed to export", err)
	if err := writeCapturesJSON(f, view); err != nil {
		f.Close()
		exitOnError("Failed to export", err)
	}
	exitOnError("Failed to export", f.Close())
	format.PrintSuccess(fmt.Sprintf("Exported %d requests to %s", len(view), captureOutput))
}

// writeCapturesJSON encodes records as stored. Addresses are never masked.
func writeCapturesJSON(w io.Writer, log []model.CapturedRequest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func runCaptureWatch(cmd *cobra.Command, args []string) {
	sessionID := args[0]
	spec := mustFilter()
	masker := newMasker()

	var out sync.Mutex
	feed := capture.NewFeed(newBackend(),
		capture.WithLogger(logger),
		capture.WithListener(func(r model.CapturedRequest) {
			if len(filter.Apply([]model.CapturedRequest{r}, spec)) == 0 {
				return
			}
			out.Lock()
			defer out.Unlock()
			format.PrintCaptureLine(os.Stdout, r, masker.Apply)
		}),
	)
	defer feed.Close()

	ctx, cancel := signalContext()
	defer cancel()

	exitOnError("Failed to watch session", feed.SetSession(ctx, sessionID))

	out.Lock()
	view := filter.Apply(feed.Snapshot(), spec)
	format.PrintCaptureTable(os.Stdout, view, masker.Apply)
	if feed.State() == capture.StateConnected {
		format.PrintInfo(fmt.Sprintf("Watching session %s (Ctrl-C to stop)", feed.SessionID()))
	} else {
		format.PrintWarning("Live stream closed; showing the snapshot only")
	}
	out.Unlock()

	<-ctx.Done()
	fmt.Println()
	format.PrintStats(os.Stdout, filter.Summarize(filter.Apply(feed.Snapshot(), spec)))
}
