package ports

import "context"

// PresenceTracker records which sockets are connected to which page, so that
// several replicas can report a cluster-wide client count.
type PresenceTracker interface {
	Join(ctx context.Context, pageID, socketID string) error
	Leave(ctx context.Context, pageID, socketID string) error
	Count(ctx context.Context, pageID string) (int, error)
}
