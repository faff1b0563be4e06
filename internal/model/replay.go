package model

// ReplayResult is the collaborator's answer to a replay request.
type ReplayResult struct {
	Success         bool   `json:"success"`
	StatusCode      int    `json:"status_code,omitempty"`
	ResponsePreview string `json:"response_preview,omitempty"`
	Error           string `json:"error,omitempty"`
}
