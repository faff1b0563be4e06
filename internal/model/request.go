package model

import (
	"strings"
	"time"
)

// Method is an HTTP method accepted by the request builder.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists every supported method in display order.
var Methods = []Method{
	MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions,
}

// ParseMethod normalises a method name and reports whether it is supported.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return m, false
}

// AllowsBody reports whether a request body may be sent with the method.
func (m Method) AllowsBody() bool {
	return m != MethodGet && m != MethodHead
}

// KVPair is an editable header or query parameter row.
type KVPair struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type BodyType string

const (
	BodyNone BodyType = "none"
	BodyJSON BodyType = "json"
	BodyForm BodyType = "form"
	BodyText BodyType = "text"
)

// ParseBodyType accepts the body types plus "raw", the older name for text.
func ParseBodyType(s string) (BodyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return BodyNone, true
	case "json":
		return BodyJSON, true
	case "form":
		return BodyForm, true
	case "text", "raw":
		return BodyText, true
	}
	return BodyNone, false
}

type BodySpec struct {
	Type    BodyType `json:"type" yaml:"type"`
	Content string   `json:"content" yaml:"content"`
}

type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "api-key"
)

// AuthSpec describes how the Authorization (or custom) header is synthesised.
// Only the fields relevant to Type are read.
type AuthSpec struct {
	Type     AuthType `json:"type" yaml:"type"`
	Token    string   `json:"token,omitempty" yaml:"token,omitempty"`
	Username string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	Key      string   `json:"key,omitempty" yaml:"key,omitempty"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
}

// RequestModel is the declarative, still-templated description of a request.
type RequestModel struct {
	Method  Method   `json:"method" yaml:"method"`
	URL     string   `json:"url" yaml:"url"`
	Headers []KVPair `json:"headers" yaml:"headers"`
	Params  []KVPair `json:"params" yaml:"params"`
	Body    BodySpec `json:"body" yaml:"body"`
	Auth    AuthSpec `json:"auth" yaml:"auth"`
}

// CompiledRequest is a fully resolved request ready for the transport.
// Header keys are in canonical MIME form. Body is nil when nothing is sent.
type CompiledRequest struct {
	Method  Method            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body,omitempty"`
}

// HistoryEntry is an executed request kept in local history
type HistoryEntry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Response  *ExecutedResponse `json:"response,omitempty"`
}

// SavedRequest represents a request saved in a collection (without response)
type SavedRequest struct {
	ID      string       `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string       `json:"name" yaml:"name"`
	Request RequestModel `json:"request_data" yaml:"request"`
}

// Collection represents a group of saved requests
type Collection struct {
	ID            string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	EnvironmentID string         `json:"environment_id,omitempty" yaml:"environment_id,omitempty"`
	Requests      []SavedRequest `json:"requests" yaml:"requests"`
	RemoteID      string         `json:"-" yaml:"remote_id,omitempty"`
}

// History represents the request history storage
type History struct {
	Requests []HistoryEntry `json:"requests"`
}

// Aliases represents all URL aliases storage
type Aliases struct {
	Aliases map[string]string `json:"aliases"` // name -> base URL
}
