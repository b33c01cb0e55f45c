// Package websocket is the WebSocket transport: a Hub that upgrades HTTP
// requests, keeps the page-to-connection registry, and routes inbound client
// events to the page's view connector.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/threeview/internal/logging"
	"github.com/aretw0/threeview/internal/sanitize"
	"github.com/aretw0/threeview/pkg/adapters/memory"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/ports"
	"github.com/aretw0/threeview/pkg/scene"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
)

const maxMessageSize = 64 * 1024

var _ ports.ConnectionRegistry = (*Hub)(nil)

// EventSink receives the connections and inbound events of a page.
// *scene.View implements it.
type EventSink interface {
	// Attach must call register and replay the page to sock without
	// dispatching anything in between.
	Attach(sock ports.Socket, register func())
	HandleEvent(ev scene.Event) (bool, error)
}

// Inbound is the JSON envelope of a client message.
type Inbound struct {
	Type    domain.EventType `json:"type"`
	Payload map[string]any   `json:"payload,omitempty"`
}

// Hub implements ports.ConnectionRegistry over live WebSocket connections.
type Hub struct {
	registry *memory.Registry
	upgrader websocket.Upgrader
	presence ports.PresenceTracker
	logger   *slog.Logger

	buffer       int
	writeTimeout time.Duration
	pingInterval time.Duration
}

// Option configures the Hub.
type Option func(*Hub)

// WithLogger configures a logger for the Hub.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithPresence reports joins and leaves to a cluster-wide tracker.
func WithPresence(p ports.PresenceTracker) Option {
	return func(h *Hub) {
		h.presence = p
	}
}

// WithBuffer sets the outbound queue length of each connection.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithWriteTimeout sets the deadline of a single frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithAllowedOrigins restricts upgrades to the given Origin headers.
// Without it every origin is accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		registry: memory.NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:       logging.NewNop(),
		buffer:       256,
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SocketsFor returns the live connections of a page.
func (h *Hub) SocketsFor(pageID string) []ports.Socket {
	return h.registry.SocketsFor(pageID)
}

// Count returns the number of live connections of a page on this process.
func (h *Hub) Count(pageID string) int {
	return h.registry.Count(pageID)
}

// Pages returns the pages with at least one live connection.
func (h *Hub) Pages() []string {
	return h.registry.Pages()
}

// Serve upgrades the request, attaches the connection to sink (registration
// under pageID plus the scene replay) and then routes client messages until
// the connection closes. It returns when the connection is gone.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, pageID string, sink EventSink) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade failed: %w", err)
	}

	conn := newConn(uuid.NewString(), pageID, ws, h.buffer, h.writeTimeout)
	logger := h.logger.With("page_id", pageID, "socket_id", conn.ID())
	ctx := context.WithoutCancel(r.Context())

	defer func() {
		h.registry.Remove(pageID, conn.ID())
		if h.presence != nil {
			if err := h.presence.Leave(ctx, pageID, conn.ID()); err != nil {
				logger.Warn("Presence leave failed", "err", err)
			}
		}
		conn.Close()
		logger.Info("Client disconnected")
	}()

	go func() {
		if err := conn.writeLoop(h.pingInterval, func() { h.join(ctx, logger, conn) }); err != nil {
			logger.Debug("Writer stopped", "err", err)
		}
		conn.Close()
	}()

	sink.Attach(conn, func() { h.registry.Add(pageID, conn) })
	h.join(ctx, logger, conn)
	logger.Info("Client connected", "remote", r.RemoteAddr)

	h.readLoop(logger, conn, sink)
	return nil
}

func (h *Hub) join(ctx context.Context, logger *slog.Logger, conn *Conn) {
	if h.presence == nil {
		return
	}
	if err := h.presence.Join(ctx, conn.PageID(), conn.ID()); err != nil {
		logger.Warn("Presence join failed", "err", err)
	}
}

func (h *Hub) readLoop(logger *slog.Logger, conn *Conn, sink EventSink) {
	conn.ws.SetReadLimit(maxMessageSize)
	deadline := func() { _ = conn.ws.SetReadDeadline(time.Now().Add(2 * h.pingInterval)) }
	deadline()
	conn.ws.SetPongHandler(func(string) error {
		deadline()
		return nil
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Read failed", "err", err)
			}
			return
		}
		deadline()

		ev, err := DecodeInbound(data)
		if err != nil {
			logger.Warn("Dropping malformed client message", "err", err)
			continue
		}
		switch ev.Type {
		case domain.EventConnect:
			// The hub already attached and replayed this socket.
			continue
		case domain.EventClick:
			ev.Click.PageID = conn.PageID()
			ev.Click.SocketID = conn.ID()
		}

		handled, err := sink.HandleEvent(ev)
		if err != nil {
			logger.Debug("Event not handled", "type", ev.Type, "err", err)
			continue
		}
		logger.Debug("Event handled", "type", ev.Type, "handled", handled)
	}
}

// DecodeInbound parses a client message into a scene event.
// Click payload fields are decoded with weak typing, so numbers sent as
// strings are accepted.
func DecodeInbound(data []byte) (scene.Event, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return scene.Event{}, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return scene.Event{}, fmt.Errorf("message without type")
	}

	ev := scene.Event{Type: msg.Type}
	if msg.Type != domain.EventClick {
		return ev, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &ev.Click,
	})
	if err != nil {
		return scene.Event{}, err
	}
	if err := decoder.Decode(msg.Payload); err != nil {
		return scene.Event{}, fmt.Errorf("invalid click payload: %w", err)
	}
	if ev.Click.ObjectID != "" {
		if ev.Click.ObjectID, err = sanitize.Text(ev.Click.ObjectID); err != nil {
			return scene.Event{}, fmt.Errorf("invalid click target: %w", err)
		}
	}
	ev.Click.Payload = msg.Payload
	return ev, nil
}
