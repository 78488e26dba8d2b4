package listenmoe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// ErrConnClosed is returned by ReadEnvelope when the gateway closed the
// connection cleanly. It marks the normal end of a session, not a failure.
var ErrConnClosed = errors.New("listenmoe: connection closed")

// DecodeError wraps a per-message decode failure. The connection is
// still usable; callers should skip the message and keep reading.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("listenmoe: decode message: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Conn is a single websocket connection to the metadata gateway.
type Conn struct {
	ws *websocket.Conn
}

// Dial connects to a gateway endpoint (TLS is negotiated for wss URLs).
func Dial(ctx context.Context, gatewayURL string) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	ws, _, err := dialer.DialContext(ctx, gatewayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("listenmoe: dial %s: %w", gatewayURL, err)
	}
	return &Conn{ws: ws}, nil
}

// ReadEnvelope blocks until the next text message arrives and decodes it.
// Non-text messages are skipped. A clean remote close yields ErrConnClosed,
// a malformed message a *DecodeError, and anything else a transport error.
// Close unblocks a pending read.
func (c *Conn) ReadEnvelope() (Envelope, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return Envelope{}, ErrConnClosed
			}
			return Envelope{}, fmt.Errorf("listenmoe: read: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return Envelope{}, &DecodeError{Err: err}
		}
		return env, nil
	}
}

// WriteHeartbeat sends one heartbeat frame.
func (c *Conn) WriteHeartbeat() error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(`{"op":9}`)); err != nil {
		return fmt.Errorf("listenmoe: heartbeat: %w", err)
	}
	return nil
}

// Close tears down the connection. Safe to call concurrently with a
// blocked ReadEnvelope; the read returns with an error.
func (c *Conn) Close() error {
	return c.ws.Close()
}
