package storage

import "strings"

const redacted = "[REDACTED]"

// sensitiveHeaders are replaced before a request is written to history.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	"x-amz-security-token": true,
	"x-amz-credential":     true,
	"x-amz-signature":      true,

	"x-goog-iap-jwt-assertion": true,
	"x-ms-token-aad-id-token":  true,

	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

// IsSensitiveHeader reports whether values of header name are redacted.
func IsSensitiveHeader(name string) bool {
	return sensitiveHeaders[strings.ToLower(strings.TrimSpace(name))]
}

// RedactHeaders returns a copy of headers with sensitive values replaced.
// extra names (for example a custom api-key header) are redacted too.
func RedactHeaders(headers map[string]string, extra ...string) map[string]string {
	if headers == nil {
		return nil
	}
	more := make(map[string]bool, len(extra))
	for _, name := range extra {
		more[strings.ToLower(name)] = true
	}

	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if IsSensitiveHeader(k) || more[strings.ToLower(k)] {
			out[k] = redacted
			continue
		}
		out[k] = v
	}
	return out
}
