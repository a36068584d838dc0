package cache

import "sync"

// Handle is a reclaimable reference to the shared Store.
//
// The thumbnail store is deliberately expendable: the host application may
// call Reclaim under memory pressure, dropping every cached image at once.
// Accessors never observe an empty reference — Acquire lazily constructs a
// fresh, empty store the first time it is called and again after every
// reclaim. Cached data can therefore vanish between any two calls; callers
// may rely only on read-your-own-write within a single store instance.
//
// Share one Handle across all providers in the process so they compete for
// a single byte budget rather than one budget each.
type Handle struct {
	mu       sync.Mutex
	store    Store
	newStore func() Store
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithMaxBytes sets the byte budget used when the handle builds a store.
// Values <= 0 use DefaultMaxBytes.
func WithMaxBytes(maxBytes int64) HandleOption {
	return func(h *Handle) {
		h.newStore = func() Store { return NewSizedLRU(maxBytes) }
	}
}

// WithStoreFactory sets the factory used to build the store on first access
// and after each reclaim. Use this to wrap the store, e.g. with the meter
// package, so instrumentation survives rebuilds.
func WithStoreFactory(factory func() Store) HandleOption {
	return func(h *Handle) {
		h.newStore = factory
	}
}

// NewHandle returns an empty Handle. The store itself is not built until
// the first Acquire.
func NewHandle(opts ...HandleOption) *Handle {
	h := &Handle{
		newStore: func() Store { return NewSizedLRU(DefaultMaxBytes) },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h
}

// Acquire returns the current store, building a fresh empty one if the
// reference is empty (never built, or reclaimed since the last access).
func (h *Handle) Acquire() Store {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store == nil {
		h.store = h.newStore()
	}
	return h.store
}

// Reclaim drops the current store, releasing every cached image. The next
// Acquire rebuilds an empty store. Safe to call at any time, including
// before the first Acquire.
func (h *Handle) Reclaim() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store = nil
}
