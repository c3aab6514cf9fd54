package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/organization"
	"parishdesk/pkg/logger"
)

// orgCacheTTL bounds staleness when NOTIFY delivery is unavailable.
const orgCacheTTL = 5 * time.Minute

// orgChannel is the NOTIFY channel fired by the organizations table trigger.
// Payload is the organization slug, empty to flush everything.
const orgChannel = "organizations_changed"

// OrgCache is a caching decorator around organization.Repository. Slug and ID
// lookups are served from memory; writes go through to the inner repository
// and invalidate. Cross-instance invalidation arrives via PostgreSQL
// LISTEN/NOTIFY, with the TTL as a fallback.
type OrgCache struct {
	inner organization.Repository
	pool  *pgxpool.Pool
	store Store

	// Listeners for invalidation events
	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// InvalidationListener is called when a cached organization is invalidated.
type InvalidationListener func(slug string)

// NewOrgCache creates a caching organization repository. The pool is used
// only for LISTEN; pass nil to disable NOTIFY invalidation (tests).
func NewOrgCache(inner organization.Repository, pool *pgxpool.Pool, store Store) *OrgCache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &OrgCache{inner: inner, pool: pool, store: store}
}

var _ organization.Repository = (*OrgCache)(nil)

func slugKey(slug string) string { return "org:slug:" + slug }
func idKey(orgID string) string  { return "org:id:" + orgID }

// GetBySlug serves from cache when possible.
func (c *OrgCache) GetBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	if cached, ok := c.store.Get(ctx, slugKey(slug)); ok {
		if org, ok := cached.(*organization.Organization); ok {
			return org, nil
		}
	}

	org, err := c.inner.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.put(ctx, org)
	return org, nil
}

// GetByID serves from cache when possible.
func (c *OrgCache) GetByID(ctx context.Context, orgID id.ID) (*organization.Organization, error) {
	if cached, ok := c.store.Get(ctx, idKey(orgID.String())); ok {
		if org, ok := cached.(*organization.Organization); ok {
			return org, nil
		}
	}

	org, err := c.inner.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, org)
	return org, nil
}

// Create delegates and primes the cache.
func (c *OrgCache) Create(ctx context.Context, org *organization.Organization) error {
	if err := c.inner.Create(ctx, org); err != nil {
		return err
	}
	c.put(ctx, org)
	return nil
}

// Update delegates and invalidates; the next read refetches.
func (c *OrgCache) Update(ctx context.Context, org *organization.Organization) error {
	if err := c.inner.Update(ctx, org); err != nil {
		return err
	}
	c.invalidate(ctx, org.Slug, org.ID.String())
	return nil
}

// Delete delegates and invalidates.
func (c *OrgCache) Delete(ctx context.Context, orgID id.ID) error {
	org, err := c.inner.GetByID(ctx, orgID)
	if err == nil {
		defer c.invalidate(ctx, org.Slug, orgID.String())
	}
	return c.inner.Delete(ctx, orgID)
}

// List is never cached.
func (c *OrgCache) List(ctx context.Context, filter organization.ListFilter) (organization.ListResult, error) {
	return c.inner.List(ctx, filter)
}

func (c *OrgCache) put(ctx context.Context, org *organization.Organization) {
	c.store.Set(ctx, slugKey(org.Slug), org, orgCacheTTL)
	c.store.Set(ctx, idKey(org.ID.String()), org, orgCacheTTL)
}

func (c *OrgCache) invalidate(ctx context.Context, slug, orgID string) {
	c.store.Delete(ctx, slugKey(slug))
	c.store.Delete(ctx, idKey(orgID))

	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "invalidation listener panic recovered", "slug", slug, "panic", r)
				}
			}()
			l(slug)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

// OnInvalidation registers a callback for invalidation events.
func (c *OrgCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// Start begins listening for NOTIFY events. No-op without a pool.
func (c *OrgCache) Start(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "organization cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *OrgCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "organization cache stopped")
}

// listenLoop holds a dedicated connection on LISTEN, reconnecting on error.
func (c *OrgCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, fmt.Sprintf("LISTEN %s;", orgChannel)); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for organization change notifications")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks on the connection until shutdown or error.
func (c *OrgCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Timeout keeps shutdown responsive.
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if recoverableWaitError(err) {
				continue
			}
			// Dead connection: return so listenLoop reacquires and
			// re-LISTENs instead of spinning on a broken conn.
			logger.Error(c.ctx, "notification wait failed", "error", err)
			return
		}

		c.handleNotification(notification.Payload)
	}
}

// recoverableWaitError reports whether a WaitForNotification error is the
// routine poll timeout rather than a broken connection.
func recoverableWaitError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// handleNotification invalidates the slug named in the payload, or flushes
// everything for an empty payload.
func (c *OrgCache) handleNotification(payload string) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	slug := strings.TrimSpace(payload)
	logger.Debug(ctx, "organization change notification", "slug", slug)

	if slug == "" {
		// Unscoped change: drop everything rather than serve stale rows
		// until the TTL catches up.
		c.store.Flush(ctx)
		return
	}

	if cached, ok := c.store.Get(ctx, slugKey(slug)); ok {
		if org, ok := cached.(*organization.Organization); ok {
			c.invalidate(ctx, slug, org.ID.String())
			return
		}
	}
	c.store.Delete(ctx, slugKey(slug))
}
