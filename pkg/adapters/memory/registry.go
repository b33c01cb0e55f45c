package memory

import (
	"sort"
	"sync"

	"github.com/aretw0/threeview/pkg/ports"
)

var _ ports.ConnectionRegistry = (*Registry)(nil)

// Registry implements ports.ConnectionRegistry in memory.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	pages map[string]map[string]ports.Socket // PageID -> SocketID -> Socket
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pages: make(map[string]map[string]ports.Socket),
	}
}

// Add attaches sock to the page.
func (r *Registry) Add(pageID string, sock ports.Socket) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pages[pageID]; !ok {
		r.pages[pageID] = make(map[string]ports.Socket)
	}
	r.pages[pageID][sock.ID()] = sock
}

// Remove detaches the socket from the page, dropping the page when it has no sockets left.
func (r *Registry) Remove(pageID, socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if socks, ok := r.pages[pageID]; ok {
		delete(socks, socketID)
		if len(socks) == 0 {
			delete(r.pages, pageID)
		}
	}
}

// SocketsFor returns the live sockets of the page, ordered by id.
func (r *Registry) SocketsFor(pageID string) []ports.Socket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	socks := r.pages[pageID]
	out := make([]ports.Socket, 0, len(socks))
	for _, s := range socks {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Pages returns the ids of pages with at least one socket.
func (r *Registry) Pages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.pages))
	for id := range r.pages {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of sockets attached to the page.
func (r *Registry) Count(pageID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages[pageID])
}
