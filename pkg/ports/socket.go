package ports

import "context"

// Socket is a live connection to one rendering client.
type Socket interface {
	// ID returns an identifier unique among the live sockets of the process.
	ID() string

	// Send delivers one wire command. Implementations may block until the
	// command is written or ctx is done.
	Send(ctx context.Context, text string) error
}

// ConnectionRegistry maps a page to its live sockets.
// It is owned and mutated by the transport; the view connector only queries it.
type ConnectionRegistry interface {
	// SocketsFor returns the sockets currently connected to the page.
	// An unknown page yields an empty result, not an error.
	SocketsFor(pageID string) []Socket
}
