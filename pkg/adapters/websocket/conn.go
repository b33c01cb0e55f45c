package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/threeview/pkg/ports"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Send once the connection is gone.
var ErrClosed = errors.New("websocket connection closed")

var _ ports.Socket = (*Conn)(nil)

// Conn is one client connection. Outbound commands go through a buffered
// queue drained by a single writer goroutine, as gorilla/websocket allows
// only one concurrent writer.
type Conn struct {
	id     string
	pageID string
	ws     *websocket.Conn
	out    chan string
	done   chan struct{}
	once   sync.Once

	writeTimeout time.Duration
}

func newConn(id, pageID string, ws *websocket.Conn, buffer int, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           id,
		pageID:       pageID,
		ws:           ws,
		out:          make(chan string, buffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// PageID returns the page the connection is attached to.
func (c *Conn) PageID() string {
	return c.pageID
}

// Send queues text for the writer. It blocks while the queue is full.
func (c *Conn) Send(ctx context.Context, text string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.out <- text:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) writeLoop(pingInterval time.Duration, onPing func()) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return nil
		case text := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return err
			}
			if onPing != nil {
				onPing()
			}
		}
	}
}
