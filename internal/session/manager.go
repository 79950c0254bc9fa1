package session

import (
	"context"
	"time"

	"github.com/bobmcallan/signin-portal/internal/cache"
	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/interfaces"
	"github.com/bobmcallan/signin-portal/internal/storage"
)

// ManagerOptions tunes the Manager.
type ManagerOptions struct {
	HydrateTimeout time.Duration
	CacheTTL       time.Duration
	MaxEntries     int
}

// Manager hands out one live Context per browser device. A context dropped
// from memory is rebuilt from the store on its next activation, the same as
// a page reload.
type Manager struct {
	store          interfaces.KeyValueStorage
	logger         *common.Logger
	contexts       *cache.Cache[*Context]
	hydrateTimeout time.Duration
}

// NewManager creates a Manager over the shared key-value store.
func NewManager(store interfaces.KeyValueStorage, logger *common.Logger, opts ManagerOptions) *Manager {
	if opts.HydrateTimeout <= 0 {
		opts.HydrateTimeout = 5 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}

	// Contexts with open event streams stay in memory so that a logout
	// reaches the pages listening on them.
	keep := func(c *Context) bool { return c.Subscribers() > 0 }

	return &Manager{
		store:          store,
		logger:         logger,
		contexts:       cache.New(opts.CacheTTL, opts.MaxEntries, keep),
		hydrateTimeout: opts.HydrateTimeout,
	}
}

// Activate returns the live context for deviceID. The first activation
// starts hydration in the background; callers that need the result wait on
// Context.Ready.
func (m *Manager) Activate(deviceID string) *Context {
	sc, created := m.contexts.GetOrCreate(deviceID, func() *Context {
		scoped := storage.Scoped(m.store, storage.DevicePrefix(deviceID))
		return New(scoped, m.logger)
	})

	if created {
		m.logger.Debug().Str("device", deviceID).Msg("session context activated")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), m.hydrateTimeout)
			defer cancel()
			sc.Initialize(ctx)
		}()
	}

	return sc
}

// Forget drops the in-memory context for deviceID. The stored record is kept.
func (m *Manager) Forget(deviceID string) {
	m.contexts.Delete(deviceID)
}

// Active returns the number of contexts currently held in memory.
func (m *Manager) Active() int {
	return m.contexts.Len()
}
