// SPDX-License-Identifier: MPL-2.0

package eventbus

import (
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// writeTimeout bounds how long a single WriteJSON to a UI client may take
// before the connection is considered dead.
const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The engine and its UI are expected to run on the same host/operator
	// network; origin checking is left to a reverse proxy if one is
	// deployed in front of this handler.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSBridge upgrades an HTTP connection to a websocket and streams every
// event published on Bus to it verbatim as a JSON envelope, until the
// client disconnects or the request context is cancelled.
type WSBridge struct {
	bus    *Bus
	logger *log.Logger
}

// NewWSBridge returns a bridge over bus. logger may be nil, in which case
// a discarding logger is used.
func NewWSBridge(bus *Bus, logger *log.Logger) *WSBridge {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "eventbus"})
	}
	return &WSBridge{bus: bus, logger: logger}
}

// ServeHTTP implements http.Handler, upgrading the request and streaming
// events for the lifetime of the connection. Each connection gets its own
// bus subscription, keyed by a caller-supplied subscriberID (typically the
// execution id being watched).
func (w *WSBridge) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	// Key by both the watched execution and the peer so two clients
	// watching the same execution get independent subscriptions.
	subscriberID := r.URL.Query().Get("exec") + "|" + r.RemoteAddr

	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	events := w.bus.Subscribe(subscriberID)
	defer w.bus.Unsubscribe(subscriberID)

	for event := range events {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			w.logger.Debug("websocket write failed, closing", "error", err, "subscriber", subscriberID)
			return
		}
	}
}
