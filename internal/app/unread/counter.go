// Package unread serves the notification-badge count through a short-TTL
// cache. The TTL bounds badge staleness to a few seconds; explicit
// invalidation on thread open and message delivery keeps it tighter in the
// common paths.
package unread

import (
	"context"
	"log/slog"
	"time"

	"campustrades/internal/app/dto"
	handlerchat "campustrades/internal/app/handlers/chat"
	"campustrades/internal/app/queries"
)

const DefaultTTL = 5 * time.Second

// Cache stores per-viewer badge counts with expiry. Implementations: Redis
// for multi-instance deployments, an in-process map otherwise.
type Cache interface {
	Get(ctx context.Context, viewerID string) (int, bool, error)
	Set(ctx context.Context, viewerID string, count int, ttl time.Duration) error
	Delete(ctx context.Context, viewerID string) error
}

// Counter answers badge-count reads, recomputing through the query bus when
// the cached value has expired.
type Counter struct {
	Queries queries.Bus
	Cache   Cache
	TTL     time.Duration
	Logger  *slog.Logger
}

// Count returns the viewer's badge count, served from cache when fresh.
// Cache failures fall through to a live computation; a stale badge beats a
// failed request.
func (c *Counter) Count(ctx context.Context, viewerID string) (int, error) {
	if viewerID == "" {
		return 0, nil
	}
	if c.Cache != nil {
		if count, ok, err := c.Cache.Get(ctx, viewerID); err == nil && ok {
			return count, nil
		} else if err != nil && c.Logger != nil {
			c.Logger.Warn("unread cache read failed", "error", err, "viewer_id", viewerID)
		}
	}

	result, err := queries.Ask[handlerchat.UnreadCountQuery, dto.UnreadCount](ctx, c.Queries, handlerchat.UnreadCountQuery{ViewerID: viewerID})
	if err != nil {
		return 0, err
	}
	if c.Cache != nil {
		if err := c.Cache.Set(ctx, viewerID, result.Count, c.ttl()); err != nil && c.Logger != nil {
			c.Logger.Warn("unread cache write failed", "error", err, "viewer_id", viewerID)
		}
	}
	return result.Count, nil
}

// Invalidate drops the viewer's cached count so the next read recomputes.
// Called when a thread is opened or a message lands, so badges update
// without waiting out the TTL.
func (c *Counter) Invalidate(ctx context.Context, viewerID string) {
	if c.Cache == nil || viewerID == "" {
		return
	}
	if err := c.Cache.Delete(ctx, viewerID); err != nil && c.Logger != nil {
		c.Logger.Warn("unread cache invalidation failed", "error", err, "viewer_id", viewerID)
	}
}

func (c *Counter) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultTTL
}
