// Package session owns the authenticated user of one browser: the in-memory
// record, its write-through copy in the session store, and change
// notification for the route guard and open pages.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/interfaces"
	"github.com/bobmcallan/signin-portal/internal/models"
)

// Store keys inside a browser's key space.
const (
	UserKey       = "user"
	IsLoggedInKey = "isLoggedIn" // legacy flag: cleared on logout, never read
)

// EventKind identifies a session change.
type EventKind int

const (
	EventReady EventKind = iota
	EventUpdated
	EventLoggedOut
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventUpdated:
		return "updated"
	case EventLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after every change.
type Event struct {
	Kind EventKind
	User *models.User
}

// Context is the session of one browser. Create with New, hydrate once with
// Initialize, then mutate with SetUser and Logout.
type Context struct {
	store  interfaces.KeyValueStorage
	logger *common.Logger

	initOnce sync.Once
	ready    chan struct{}

	// writeMu serializes SetUser, Logout and corrupted-entry cleanup so the
	// store, memory and event order always agree on the last writer.
	writeMu sync.Mutex

	mu      sync.RWMutex
	user    *models.User
	written bool // SetUser/Logout happened; hydration must not override it
	subs    map[int]chan Event
	nextSub int
}

// New creates an uninitialized context over a browser-scoped store.
func New(store interfaces.KeyValueStorage, logger *common.Logger) *Context {
	return &Context{
		store:  store,
		logger: logger,
		ready:  make(chan struct{}),
		subs:   make(map[int]chan Event),
	}
}

// Initialize hydrates the user from the store. Only the first call does any
// work; it always leaves the context ready. A corrupted entry is removed and
// the session treated as anonymous.
func (c *Context) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		user := c.load(ctx)

		c.mu.Lock()
		if !c.written {
			c.user = user
		}
		current := c.user.Clone()
		c.mu.Unlock()

		close(c.ready)
		c.publish(Event{Kind: EventReady, User: current})
	})
}

func (c *Context) load(ctx context.Context) *models.User {
	raw, err := c.store.Get(ctx, UserKey)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("failed to read saved user, continuing anonymous")
		}
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		c.logger.Warn().Err(err).Msg("failed to parse saved user data, clearing it")
	} else if err := user.Validate(); err != nil {
		c.logger.Warn().Err(err).Msg("saved user data is invalid, clearing it")
	} else {
		return &user
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	written := c.written
	c.mu.RUnlock()
	if written {
		// Replaced by a SetUser or Logout while hydrating
		return nil
	}
	if err := c.store.Delete(ctx, UserKey); err != nil {
		c.logger.Warn().Err(err).Msg("failed to clear corrupted user data")
	}
	return nil
}

// Ready is closed once Initialize has finished.
func (c *Context) Ready() <-chan struct{} {
	return c.ready
}

// IsReady reports whether Initialize has finished.
func (c *Context) IsReady() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the context is ready, wait elapses or ctx is done.
func (c *Context) WaitReady(ctx context.Context, wait time.Duration) bool {
	if c.IsReady() {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-c.ready:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Current returns a copy of the current user, or nil when anonymous.
func (c *Context) Current() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.user.Clone()
}

// SetUser replaces the current user and writes it through to the store. The
// in-memory record is replaced even when the store write fails.
func (c *Context) SetUser(ctx context.Context, user models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.user = user.Clone()
	c.written = true
	c.mu.Unlock()

	c.publish(Event{Kind: EventUpdated, User: user.Clone()})

	if err := c.store.Set(ctx, UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// Logout forgets the current user and removes both store keys.
func (c *Context) Logout(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.user = nil
	c.written = true
	c.mu.Unlock()

	c.publish(Event{Kind: EventLoggedOut})

	var errs []error
	for _, key := range []string{UserKey, IsLoggedInKey} {
		if err := c.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers for change events. The channel holds at most one
// pending event; a slow reader only ever misses older events. Call cancel to
// unsubscribe, after which the channel is closed.
func (c *Context) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (c *Context) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.subs)
}

func (c *Context) publish(evt Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, ch := range c.subs {
		select {
		case ch <- evt:
			continue
		default:
		}
		// Full: replace the stale pending event with this one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
