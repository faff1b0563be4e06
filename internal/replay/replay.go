// Package replay re-sends a captured request to a new target through the
// backend. Method, headers and body come from the capture; only the target
// changes.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	httpclient "github.com/vedsharma/pingforge/internal/http"
	"github.com/vedsharma/pingforge/internal/model"
)

var ErrMissingRequest = errors.New("request id is required")

// Error is a failure reported by the backend. Message is shown verbatim.
type Error struct {
	RequestID  string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("replay of %s failed", e.RequestID)
	}
	return e.Message
}

// Backend performs the replay server side.
type Backend interface {
	Replay(ctx context.Context, sessionID, requestID, target string) (*model.ReplayResult, error)
}

type Dispatcher struct {
	backend Backend
	logger  *slog.Logger
}

func NewDispatcher(backend Backend, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{backend: backend, logger: logger}
}

// Dispatch validates target locally and asks the backend to replay the
// request. A result with Success false becomes an *Error; transport and
// authorisation failures are returned wrapped.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, requestID, target string) (*model.ReplayResult, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, ErrMissingRequest
	}
	target = strings.TrimSpace(target)
	if err := httpclient.ValidateTarget(target); err != nil {
		return nil, err
	}

	d.logger.Info("replaying captured request", "session", sessionID, "request", requestID, "target", target)
	res, err := d.backend.Replay(ctx, sessionID, requestID, target)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", requestID, err)
	}
	if !res.Success {
		return res, &Error{RequestID: requestID, StatusCode: res.StatusCode, Message: res.Error}
	}
	return res, nil
}
