package atproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// Ensure WebsocketTransport implements the interface.
var _ driven.Transport = (*WebsocketTransport)(nil)

// DefaultHandshakeTimeout bounds the websocket handshake.
const DefaultHandshakeTimeout = 30 * time.Second

// WebsocketTransport is a firehose subscription over a websocket.
type WebsocketTransport struct {
	endpoint string
	cursor   int64
	dialer   *websocket.Dialer
	log      *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	stopped bool
}

// NewWebsocketTransport creates a transport for endpoint. A positive cursor
// resumes the stream after that sequence number.
func NewWebsocketTransport(endpoint string, cursor int64, log *slog.Logger) *WebsocketTransport {
	return &WebsocketTransport{
		endpoint: endpoint,
		cursor:   cursor,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		log: logger.Component(log, "transport"),
	}
}

// URL returns the subscription URL including the cursor.
func (t *WebsocketTransport) URL() (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse firehose url: %w", err)
	}
	if t.cursor > 0 {
		q := u.Query()
		q.Set("cursor", strconv.FormatInt(t.cursor, 10))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Start implements driven.Transport.
func (t *WebsocketTransport) Start(ctx context.Context, onFrame driven.FrameHandler, onError driven.ErrorHandler) error {
	endpoint, err := t.URL()
	if err != nil {
		return err
	}

	if t.isStopped() {
		return nil
	}

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if t.isStopped() {
			return nil
		}
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		conn.Close()
		return nil
	}
	t.conn = conn
	t.mu.Unlock()

	t.log.Info("connected to firehose", "url", endpoint)

	for {
		kind, frame, err := conn.ReadMessage()
		if err != nil {
			if t.isStopped() {
				return nil
			}
			t.release(conn)
			return fmt.Errorf("read frame: %w", err)
		}
		if kind != websocket.BinaryMessage {
			onError(fmt.Errorf("unexpected websocket message type %d", kind))
			continue
		}
		if err := onFrame(ctx, frame); err != nil {
			onError(err)
		}
	}
}

// Stop implements driven.Transport. It closes the connection, which
// unblocks the read loop in Start.
func (t *WebsocketTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil
	}
	t.stopped = true
	if t.conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := t.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		t.log.Debug("sending close frame", "error", err)
	}
	if err := t.conn.Close(); err != nil {
		return fmt.Errorf("close websocket: %w", err)
	}
	return nil
}

// release drops a failed connection so a later Stop has nothing to close.
func (t *WebsocketTransport) release(conn *websocket.Conn) {
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()
	conn.Close()
}

func (t *WebsocketTransport) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
