package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vedsharma/pingforge/internal/model"
)

// Validation errors. They are reported before any network I/O.
var (
	ErrEmptyURL          = errors.New("url is empty")
	ErrInvalidURL        = errors.New("invalid url")
	ErrMissingAuth       = errors.New("missing auth credentials")
	ErrUnsupportedMethod = errors.New("unsupported method")
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeText = "text/plain"
)

// Resolver expands template tokens in user supplied text.
type Resolver interface {
	Resolve(text string) string
}

type identity struct{}

func (identity) Resolve(text string) string { return text }

// Build compiles a request model into a transport ready request. Every user
// supplied string goes through the resolver before it is used.
func Build(m model.RequestModel, r Resolver) (*model.CompiledRequest, error) {
	if r == nil {
		r = identity{}
	}

	method := m.Method
	if method == "" {
		method = model.MethodGet
	}
	method, ok := model.ParseMethod(string(method))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, m.Method)
	}

	if err := validateAuth(m.Auth); err != nil {
		return nil, err
	}

	rawURL := strings.TrimSpace(r.Resolve(m.URL))
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, rawURL)
	}

	headers := make(map[string]string)
	for _, h := range m.Headers {
		if !h.Enabled || h.Key == "" || h.Value == "" {
			continue
		}
		key := r.Resolve(h.Key)
		if key == "" {
			continue
		}
		headers[http.CanonicalHeaderKey(key)] = r.Resolve(h.Value)
	}

	if query := buildQuery(m.Params, r); query != "" {
		if u.RawQuery == "" {
			u.RawQuery = query
		} else {
			u.RawQuery += "&" + query
		}
	}

	applyAuth(headers, m.Auth, r)

	var body []byte
	if method.AllowsBody() && m.Body.Content != "" {
		// a body that resolves to nothing is sent as no body
		if content := r.Resolve(m.Body.Content); content != "" {
			switch m.Body.Type {
			case model.BodyJSON:
				headers["Content-Type"] = contentTypeJSON
				body = []byte(content)
			case model.BodyForm:
				headers["Content-Type"] = contentTypeForm
				body = []byte(content)
			case model.BodyText:
				headers["Content-Type"] = contentTypeText
				body = []byte(content)
			}
		}
	}

	return &model.CompiledRequest{
		Method:  method,
		URL:     u.String(),
		Headers: headers,
		Body:    body,
	}, nil
}

// buildQuery appends params in order; duplicate keys are kept.
func buildQuery(params []model.KVPair, r Resolver) string {
	var parts []string
	for _, p := range params {
		if !p.Enabled || p.Key == "" || p.Value == "" {
			continue
		}
		parts = append(parts, url.QueryEscape(r.Resolve(p.Key))+"="+url.QueryEscape(r.Resolve(p.Value)))
	}
	return strings.Join(parts, "&")
}

func validateAuth(auth model.AuthSpec) error {
	switch auth.Type {
	case "", model.AuthNone:
		return nil
	case model.AuthBearer:
		if auth.Token == "" {
			return fmt.Errorf("%w: bearer auth needs a token", ErrMissingAuth)
		}
	case model.AuthBasic:
		if auth.Username == "" || auth.Password == "" {
			return fmt.Errorf("%w: basic auth needs a username and password", ErrMissingAuth)
		}
	case model.AuthAPIKey:
		if auth.Key == "" || auth.Value == "" {
			return fmt.Errorf("%w: api-key auth needs a key and value", ErrMissingAuth)
		}
	default:
		return fmt.Errorf("%w: unknown auth type %q", ErrMissingAuth, auth.Type)
	}
	return nil
}

// applyAuth runs after user headers so it can override them.
func applyAuth(headers map[string]string, auth model.AuthSpec, r Resolver) {
	switch auth.Type {
	case model.AuthBearer:
		headers["Authorization"] = "Bearer " + r.Resolve(auth.Token)
	case model.AuthBasic:
		credentials := r.Resolve(auth.Username) + ":" + r.Resolve(auth.Password)
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
	case model.AuthAPIKey:
		key := r.Resolve(auth.Key)
		if key != "" {
			headers[http.CanonicalHeaderKey(key)] = r.Resolve(auth.Value)
		}
	}
}
