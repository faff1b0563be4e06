package model

import "encoding/json"

// BodyKind discriminates the payload held by an ExecutedResponse.
type BodyKind string

const (
	BodyKindJSON  BodyKind = "json"
	BodyKindText  BodyKind = "text"
	BodyKindError BodyKind = "error"
)

// StatusNetworkError is the status of a synthetic response built from a
// transport failure.
const StatusNetworkError = 0

// ExecutedResponse is the outcome of one request execution. Exactly one of
// JSON or Text is meaningful, chosen by BodyKind: JSON for BodyKindJSON, Text
// for BodyKindText and for BodyKindError (the failure message).
type ExecutedResponse struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	BodyKind   BodyKind          `json:"bodyKind"`
	JSON       json.RawMessage   `json:"json,omitempty"`
	Text       string            `json:"text,omitempty"`
	ElapsedMs  int64             `json:"elapsedMs"`
	// SizeBytes is only computed for text bodies; JSON bodies report 0.
	SizeBytes int `json:"sizeBytes"`
}

// IsNetworkError reports whether the response stands for a transport failure.
func (r *ExecutedResponse) IsNetworkError() bool {
	return r.BodyKind == BodyKindError && r.Status == StatusNetworkError
}

// BodyString returns the payload as a string regardless of kind.
func (r *ExecutedResponse) BodyString() string {
	if r.BodyKind == BodyKindJSON {
		return string(r.JSON)
	}
	return r.Text
}
