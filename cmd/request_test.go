package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/pingforge/internal/model"
)

func resetRequestFlags() {
	headers, params = nil, nil
	data, bodyType = "", ""
	bearerToken, basicAuth, apiKey = "", "", ""
}

func TestRequestFromFlags(t *testing.T) {
	resetRequestFlags()
	t.Cleanup(resetRequestFlags)

	headers = []string{"X-Trace: {{trace}}", "Accept:application/json"}
	params = []string{"page=2", "q=a=b"}
	bearerToken = "{{token}}"

	req, err := requestFromFlags(model.MethodPost, "{{base}}/users", `{"name":"{{user}}"}`)
	require.NoError(t, err)

	assert.Equal(t, []model.KVPair{
		{Key: "X-Trace", Value: "{{trace}}", Enabled: true},
		{Key: "Accept", Value: "application/json", Enabled: true},
	}, req.Headers)
	assert.Equal(t, []model.KVPair{
		{Key: "page", Value: "2", Enabled: true},
		{Key: "q", Value: "a=b", Enabled: true},
	}, req.Params)
	assert.Equal(t, model.AuthSpec{Type: model.AuthBearer, Token: "{{token}}"}, req.Auth)
	assert.Equal(t, model.BodyJSON, req.Body.Type)
}

func TestRequestFromFlagsBodyType(t *testing.T) {
	resetRequestFlags()
	t.Cleanup(resetRequestFlags)

	req, err := requestFromFlags(model.MethodPost, "https://example.com", "plain words")
	require.NoError(t, err)
	assert.Equal(t, model.BodyText, req.Body.Type)

	bodyType = "form"
	req, err = requestFromFlags(model.MethodPost, "https://example.com", "a=1&b=2")
	require.NoError(t, err)
	assert.Equal(t, model.BodyForm, req.Body.Type)

	bodyType = "xml"
	_, err = requestFromFlags(model.MethodPost, "https://example.com", "<a/>")
	assert.Error(t, err)
}

func TestRequestFromFlagsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		set  func()
	}{
		{"header without colon", func() { headers = []string{"X-Trace"} }},
		{"param without equals", func() { params = []string{"page"} }},
		{"two auth flags", func() { bearerToken, basicAuth = "t", "u:p" }},
		{"api key without value", func() { apiKey = "X-Key" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetRequestFlags()
			t.Cleanup(resetRequestFlags)
			tt.set()
			_, err := requestFromFlags(model.MethodGet, "https://example.com", "")
			assert.Error(t, err)
		})
	}
}

func TestLooksSensitive(t *testing.T) {
	assert.True(t, looksSensitive(`{"Password":"hunter2"}`))
	assert.True(t, looksSensitive("grant_type=client_credentials&client_secret=x"))
	assert.False(t, looksSensitive(`{"name":"Ada"}`))
	assert.False(t, looksSensitive(""))
}
