package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/vedsharma/pingforge/internal/model"
)

const maxStreamMessage = 1 << 20

// Stream subscribes to live captured requests for a session. Records are
// delivered in the order the server sends them; the channel is closed when
// ctx is cancelled or the connection ends. Malformed messages are logged and
// skipped.
func (c *Client) Stream(ctx context.Context, sessionID string) (<-chan model.CapturedRequest, error) {
	target := c.wsURL + "/ws/" + escape(sessionID)
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.Dial(ctx, target, &websocket.DialOptions{
		HTTPClient: c.streamHTTPClient(),
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	conn.SetReadLimit(maxStreamMessage)
	c.logger.Debug("stream connected", "session", sessionID)

	out := make(chan model.CapturedRequest)
	go c.readStream(ctx, conn, sessionID, out)
	return out, nil
}

func (c *Client) readStream(ctx context.Context, conn *websocket.Conn, sessionID string, out chan<- model.CapturedRequest) {
	defer close(out)
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			var ce websocket.CloseError
			switch {
			case ctx.Err() != nil:
			case errors.As(err, &ce):
				c.logger.Debug("stream closed by server", "session", sessionID, "code", ce.Code, "reason", ce.Reason)
			default:
				c.logger.Warn("stream read failed", "session", sessionID, "error", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var rec model.CapturedRequest
		if err := json.Unmarshal(data, &rec); err != nil {
			c.logger.Warn("skipping malformed stream message", "session", sessionID, "error", err)
			continue
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return
		}
	}
}

// streamHTTPClient copies the REST client without its overall timeout, which
// would otherwise cut the long-lived connection.
func (c *Client) streamHTTPClient() *http.Client {
	hc := *c.http
	hc.Timeout = 0
	return &hc
}
