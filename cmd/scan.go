package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	httpclient "github.com/vedsharma/pingforge/internal/http"
	"github.com/vedsharma/pingforge/internal/model"
)

var (
	scanMethod string
	scanOutput string
)

func init() {
	scanCmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Run a security scan against an endpoint",
		Long: `Ask the pingforge server to probe an endpoint for common vulnerabilities.
Findings are printed most severe first.

Example:
  pingforge scan https://api.example.com/login -X POST --bearer $TOKEN -o report.json`,
		Args: cobra.ExactArgs(1),
		Run:  runScan,
	}

	scanCmd.Flags().StringVarP(&scanMethod, "method", "X", "GET", "HTTP method to probe with")
	scanCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header 'Key: Value' (can be used multiple times)")
	scanCmd.Flags().StringVar(&bearerToken, "bearer", "", "Bearer token")
	scanCmd.Flags().StringVar(&basicAuth, "basic", "", "Basic auth as user:pass")
	scanCmd.Flags().StringVar(&apiKey, "api-key", "", "API key header as key=value")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Write the full report as JSON to a file")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	target := strings.TrimSpace(args[0])
	exitOnError("Invalid target", httpclient.ValidateTarget(target))

	method, ok := model.ParseMethod(scanMethod)
	if !ok {
		format.PrintError(fmt.Sprintf("Unsupported method '%s'", scanMethod))
		os.Exit(1)
	}

	req, err := requestFromFlags(method, target, "")
	exitOnError("Invalid request", err)

	scan := model.ScanRequest{TargetURL: target, Method: string(method), Headers: map[string]string{}}
	for _, h := range req.Headers {
		scan.Headers[h.Key] = h.Value
	}
	if req.Auth.Type != model.AuthNone {
		auth := req.Auth
		scan.Auth = &auth
	}

	ctx, cancel := signalContext()
	defer cancel()

	format.PrintInfo(fmt.Sprintf("Scanning %s %s...", method, target))
	report, err := newBackend().SecurityScan(ctx, scan)
	exitOnError("Scan failed", err)

	format.PrintScanReport(os.Stdout, report)

	if scanOutput != "" {
		out, err := json.MarshalIndent(report, "", "  ")
		exitOnError("Failed to encode report", err)
		exitOnError("Failed to write report", os.WriteFile(scanOutput, out, 0600))
		format.PrintSuccess(fmt.Sprintf("Report written to %s", scanOutput))
	}
}
