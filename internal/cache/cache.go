// Package cache keeps a single user's grouped notifications on the client
// side, avoiding duplicate fetches and applying optimistic updates that are
// reconciled against the server.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/logging"
)

// Source is the authoritative side of the cache: the in-process core or the HTTP API.
type Source interface {
	GetGroupedNotifications(ctx context.Context, userID string) (domain.Notifications, error)
	DismissNotification(ctx context.Context, userID, appointmentID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// Snapshot is a copy of the cache state.
type Snapshot struct {
	UserID      string
	Groups      domain.NotificationGroups
	UnreadCount int
	// Loading is true while any fetch is in flight.
	Loading   bool
	FetchedAt time.Time
	// Err is the error of the most recent fetch, cleared by the next success.
	Err error
}

// Options configures a Cache.
type Options struct {
	// OnChange is called after every state change, outside the cache lock.
	// It may be called from background goroutines.
	OnChange func(Snapshot)
	Logger   logging.Logger
	Clock    func() time.Time
}

// Cache is one user session's view of its notifications. It is safe for
// concurrent use, but at most one Load reaches the source at a time.
type Cache struct {
	src      Source
	onChange func(Snapshot)
	log      logging.Logger
	clock    func() time.Time

	inflight atomic.Int32
	seq      atomic.Uint64
	bg       sync.WaitGroup

	mu        sync.Mutex
	userID    string // last requested user
	owner     string // user the cached data belongs to; set only when a fetch is applied
	reflects  string // owner, cleared by Refresh to force the next Load to fetch
	groups    domain.NotificationGroups
	unread    int
	applied   uint64
	fetchedAt time.Time
	lastErr   error
}

// New creates an empty cache over src.
func New(src Source, opts Options) *Cache {
	if src == nil {
		panic("cache.New: source dependency cannot be nil")
	}
	c := &Cache{
		src:      src,
		onChange: opts.OnChange,
		log:      opts.Logger,
		clock:    opts.Clock,
	}
	if c.log == nil {
		c.log = logging.GetGlobal()
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

// Load returns the notifications for userID. While another fetch is in
// flight it returns the current state without issuing a request. When the
// cache already holds non-empty data for userID it returns that data.
func (c *Cache) Load(ctx context.Context, userID string) (Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return c.Snapshot(), fmt.Errorf("cache: load: %w: user id cannot be empty", domain.ErrInvalidArgument)
	}
	if c.inflight.Load() > 0 {
		return c.Snapshot(), nil
	}

	c.mu.Lock()
	if c.reflects == userID && c.groups.Len() > 0 {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	c.userID = userID
	c.mu.Unlock()

	if !c.inflight.CompareAndSwap(0, 1) {
		return c.Snapshot(), nil
	}
	defer c.inflight.Add(-1)
	return c.fetch(ctx, userID)
}

// Refresh drops the cached data marker and fetches the last requested user
// again, even if another fetch is in flight. The newest response wins.
func (c *Cache) Refresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	c.reflects = ""
	userID := c.userID
	c.mu.Unlock()
	if userID == "" {
		return c.Snapshot(), fmt.Errorf("cache: refresh: %w: nothing loaded yet", domain.ErrInvalidArgument)
	}

	c.inflight.Add(1)
	defer c.inflight.Add(-1)
	return c.fetch(ctx, userID)
}

func (c *Cache) fetch(ctx context.Context, userID string) (Snapshot, error) {
	seq := c.seq.Add(1)
	c.notify()

	n, err := c.src.GetGroupedNotifications(ctx, userID)

	c.mu.Lock()
	if seq <= c.applied {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.log.Debug("discarding stale notifications response", "user_id", userID, "seq", seq)
		if err != nil {
			return snap, fmt.Errorf("cache: fetch: %w", err)
		}
		return snap, nil
	}
	if err != nil {
		c.lastErr = err
	} else {
		c.applied = seq
		c.owner = userID
		c.reflects = userID
		c.groups = n.Groups.Clone()
		c.unread = n.UnreadCount
		c.fetchedAt = c.clock()
		c.lastErr = nil
	}
	c.mu.Unlock()

	c.notify()
	if err != nil {
		return c.Snapshot(), fmt.Errorf("cache: fetch: %w", err)
	}
	return c.Snapshot(), nil
}

// Dismiss dismisses the appointment at the source. On success the item is
// removed locally and the unread badge drops by one if the item was due
// today or later. On failure nothing is changed locally; the cache is
// refreshed from the source and the error is returned.
func (c *Cache) Dismiss(ctx context.Context, appointmentID string) error {
	userID, err := c.currentUser("dismiss")
	if err != nil {
		return err
	}
	if strings.TrimSpace(appointmentID) == "" {
		return fmt.Errorf("cache: dismiss: %w: appointment id cannot be empty", domain.ErrInvalidArgument)
	}

	if err := c.src.DismissNotification(ctx, userID, appointmentID); err != nil {
		c.log.Warn("dismiss failed, refreshing", "user_id", userID, "appointment_id", appointmentID, "error", err)
		if _, rerr := c.Refresh(ctx); rerr != nil {
			c.log.Warn("refresh after failed dismiss", "error", rerr)
		}
		return fmt.Errorf("cache: dismiss: %w", err)
	}

	c.mu.Lock()
	bucket, found := c.groups.Find(appointmentID)
	c.groups = c.groups.Without(appointmentID)
	if found && bucket != domain.BucketPast && c.unread > 0 {
		c.unread--
	}
	// Responses to fetches issued before the dismissal are now stale.
	c.applied = c.seq.Load()
	c.mu.Unlock()

	c.notify()
	return nil
}

// MarkAllRead zeroes the unread badge immediately and marks everything read
// at the source in the background. Whatever the outcome, the cache is then
// refreshed from the source. Background failures are logged, not returned.
func (c *Cache) MarkAllRead(ctx context.Context) error {
	userID, err := c.currentUser("mark all read")
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.unread = 0
	c.applied = c.seq.Load()
	c.mu.Unlock()
	c.notify()

	bg := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		marked, err := c.src.MarkAllRead(bg, userID)
		if err != nil {
			c.log.Warn("mark all read failed", "user_id", userID, "error", err)
		} else {
			c.log.Debug("marked all read", "user_id", userID, "marked", marked)
		}
		if _, err := c.Refresh(bg); err != nil {
			c.log.Warn("refresh after mark all read", "user_id", userID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until background reconciliations have finished.
func (c *Cache) Wait() {
	c.bg.Wait()
}

// GetGroupedNotifications loads userID through the cache. It fails with
// ErrUnavailable when the cached data belongs to someone else because another
// fetch is still in flight.
func (c *Cache) GetGroupedNotifications(ctx context.Context, userID string) (domain.Notifications, error) {
	snap, err := c.Load(ctx, userID)
	if err != nil {
		return domain.Notifications{}, err
	}
	if snap.UserID != userID {
		return domain.Notifications{}, fmt.Errorf("cache: load: %w: a fetch for another user is in flight", domain.ErrUnavailable)
	}
	return domain.Notifications{Groups: snap.Groups, UnreadCount: snap.UnreadCount}, nil
}

// Snapshot returns a copy of the current state. UserID names the user the
// data belongs to, which is empty until a fetch has succeeded.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cache) snapshotLocked() Snapshot {
	return Snapshot{
		UserID:      c.owner,
		Groups:      c.groups.Clone(),
		UnreadCount: c.unread,
		Loading:     c.inflight.Load() > 0,
		FetchedAt:   c.fetchedAt,
		Err:         c.lastErr,
	}
}

func (c *Cache) currentUser(op string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == "" {
		return "", fmt.Errorf("cache: %s: %w: nothing loaded yet", op, domain.ErrInvalidArgument)
	}
	return c.owner, nil
}

func (c *Cache) notify() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}
