package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/threeview/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

var _ ports.PresenceTracker = (*Presence)(nil)

// Presence implements ports.PresenceTracker with one sorted set per page.
// Members are socket ids scored by their expiry time, so replicas that crash
// without calling Leave stop counting after the TTL.
type Presence struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
}

// PresenceOption configures Presence.
type PresenceOption func(*Presence)

// WithPresenceTTL sets how long a Join is valid without a refresh.
func WithPresenceTTL(ttl time.Duration) PresenceOption {
	return func(p *Presence) {
		p.ttl = ttl
	}
}

// WithPresencePrefix sets the key prefix.
func WithPresencePrefix(prefix string) PresenceOption {
	return func(p *Presence) {
		p.prefix = prefix
	}
}

// NewPresence creates a presence tracker.
func NewPresence(client backend.UniversalClient, opts ...PresenceOption) *Presence {
	p := &Presence{
		client: client,
		prefix: "threeview:presence:",
		ttl:    time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Presence) key(pageID string) string {
	return p.prefix + pageID
}

// Join records (or refreshes) a socket on a page.
func (p *Presence) Join(ctx context.Context, pageID, socketID string) error {
	expiry := time.Now().Add(p.ttl)
	pipe := p.client.TxPipeline()
	pipe.ZAdd(ctx, p.key(pageID), backend.Z{Score: float64(expiry.UnixMilli()), Member: socketID})
	pipe.PExpire(ctx, p.key(pageID), p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to join page %s: %w", pageID, err)
	}
	return nil
}

// Leave removes a socket from a page.
func (p *Presence) Leave(ctx context.Context, pageID, socketID string) error {
	if err := p.client.ZRem(ctx, p.key(pageID), socketID).Err(); err != nil {
		return fmt.Errorf("failed to leave page %s: %w", pageID, err)
	}
	return nil
}

// Count returns the number of live sockets on a page across replicas.
// Expired members are pruned lazily.
func (p *Presence) Count(ctx context.Context, pageID string) (int, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := p.client.ZRemRangeByScore(ctx, p.key(pageID), "-inf", "("+now).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune presence: %w", err)
	}
	n, err := p.client.ZCard(ctx, p.key(pageID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count presence: %w", err)
	}
	return int(n), nil
}
