package cache

import (
	"container/list"
	"image"
	"sync"
)

// Interface compliance.
var _ Store = (*sizedLRU)(nil)

// sizedLRU is a mutex-protected LRU store with cost-based eviction. The
// recency list holds entries front-to-back from most to least recently
// used; the index maps paths to their list elements for O(1) lookup.
type sizedLRU struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	order    *list.List
	maxBytes int64
	curBytes int64
	onEvict  func(path string, cost int)
}

type entry struct {
	path string
	img  image.Image
	cost int
}

// LRUOption configures a sized LRU store.
type LRUOption func(*sizedLRU)

// WithEvictionHook registers a callback invoked for every entry removed by
// an eviction pass. The hook runs with the store's lock held and must not
// call back into the store.
func WithEvictionHook(hook func(path string, cost int)) LRUOption {
	return func(s *sizedLRU) {
		s.onEvict = hook
	}
}

// NewSizedLRU returns a Store bounded by maxBytes. Values <= 0 use
// DefaultMaxBytes.
func NewSizedLRU(maxBytes int64, opts ...LRUOption) Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	s := &sizedLRU{
		index:    make(map[string]*list.Element),
		order:    list.New(),
		maxBytes: maxBytes,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Get retrieves the image cached for path and marks it most recently used.
func (s *sizedLRU) Get(path string) (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[path]
	if !ok {
		return nil, false
	}
	s.order.MoveToFront(el)
	return el.Value.(*entry).img, true
}

// Put inserts or replaces the image cached for path.
//
// If cost alone exceeds the budget the entry is not stored; accounting is
// left untouched apart from removing any prior entry for the same path, so
// a single oversized item can never corrupt the aggregate.
func (s *sizedLRU) Put(path string, img image.Image, cost int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.index[path]; ok {
		s.removeLocked(el)
	}

	if int64(cost) > s.maxBytes {
		return
	}

	// Evict from the back until the new entry fits.
	for s.curBytes+int64(cost) > s.maxBytes {
		oldest := s.order.Back()
		evicted := oldest.Value.(*entry)
		s.removeLocked(oldest)
		if s.onEvict != nil {
			s.onEvict(evicted.path, evicted.cost)
		}
	}

	el := s.order.PushFront(&entry{path: path, img: img, cost: cost})
	s.index[path] = el
	s.curBytes += int64(cost)
}

// Len returns the number of cached entries.
func (s *sizedLRU) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// SizeBytes returns the aggregate cost of all cached entries.
func (s *sizedLRU) SizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curBytes
}

// MaxBytes returns the configured byte budget.
func (s *sizedLRU) MaxBytes() int64 {
	return s.maxBytes
}

func (s *sizedLRU) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	s.order.Remove(el)
	delete(s.index, e.path)
	s.curBytes -= int64(e.cost)
}
