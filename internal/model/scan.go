package model

import "time"

// Severity levels reported by the security scanner, most severe first.
var Severities = []string{"critical", "high", "medium", "low", "info"}

// ScanRequest is what is sent to the remote scanner. Auth is forwarded as-is
// and synthesised server side.
type ScanRequest struct {
	TargetURL string            `json:"target_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Auth      *AuthSpec         `json:"auth,omitempty"`
}

type Finding struct {
	VulnerabilityType string `json:"vulnerability_type"`
	Level             string `json:"level"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Evidence          string `json:"evidence"`
	Recommendation    string `json:"recommendation"`
	CWEID             string `json:"cwe_id,omitempty"`
	PayloadUsed       string `json:"payload_used,omitempty"`
}

type ScanResult struct {
	TargetURL       string         `json:"target_url"`
	ScanDuration    float64        `json:"scan_duration"`
	TotalFindings   int            `json:"total_findings"`
	FindingsByLevel map[string]int `json:"findings_by_level"`
	Findings        []Finding      `json:"findings"`
	ScanTimestamp   string         `json:"scan_timestamp"`
}

// ScanReport is the scanner response, kept verbatim for export.
type ScanReport struct {
	ScanID string     `json:"scan_id"`
	Result ScanResult `json:"result"`
}

// ScannedAt parses the report timestamp, returning the zero time when absent.
func (r *ScanReport) ScannedAt() time.Time {
	t, err := ParseTimestamp(r.Result.ScanTimestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
