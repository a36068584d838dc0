// Package meter instruments a thumbnail store with prometheus metrics.
//
// Because the shared store is reclaimable and rebuilt empty after memory
// pressure, instruments are registered once on a [Metrics] value and then
// attached to every store it builds, so counters survive rebuilds:
//
//	m, err := meter.NewMetrics("thumbs", registerer)
//	if err != nil {
//	    return err
//	}
//	handle := cache.NewHandle(cache.WithStoreFactory(func() cache.Store {
//	    return m.NewStore(5 << 20)
//	}))
package meter

import (
	"image"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meigma/thumb/cache"
)

// Metrics holds the registered instruments for one logical store,
// independent of how many times the store is rebuilt.
type Metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter

	mu  sync.Mutex
	cur cache.Store
}

// NewMetrics registers hit, miss, eviction, and resident-size instruments
// under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Thumbnail cache lookups served from memory.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Thumbnail cache lookups that required a decode.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Thumbnail cache entries evicted to stay within budget.",
		}),
	}
	sizeBytes := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_resident_bytes",
		Help:      "Aggregate cost of cached thumbnails in the current store.",
	}, m.residentBytes)

	for _, c := range []prometheus.Collector{m.hits, m.misses, m.evictions, sizeBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewStore builds a byte-budgeted store whose activity feeds these
// metrics. Intended as a store factory for cache.NewHandle, so every
// rebuild after a reclaim stays instrumented.
func (m *Metrics) NewStore(maxBytes int64) cache.Store {
	base := cache.NewSizedLRU(maxBytes, cache.WithEvictionHook(func(string, int) {
		m.evictions.Inc()
	}))

	m.mu.Lock()
	m.cur = base
	m.mu.Unlock()

	return &store{base: base, metrics: m}
}

func (m *Metrics) residentBytes() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return 0
	}
	return float64(m.cur.SizeBytes())
}

// Interface compliance.
var _ cache.Store = (*store)(nil)

// store counts hits and misses around a base store.
type store struct {
	base    cache.Store
	metrics *Metrics
}

func (s *store) Get(path string) (image.Image, bool) {
	img, ok := s.base.Get(path)
	if ok {
		s.metrics.hits.Inc()
	} else {
		s.metrics.misses.Inc()
	}
	return img, ok
}

func (s *store) Put(path string, img image.Image, cost int) {
	s.base.Put(path, img, cost)
}

func (s *store) Len() int { return s.base.Len() }

func (s *store) SizeBytes() int64 { return s.base.SizeBytes() }

func (s *store) MaxBytes() int64 { return s.base.MaxBytes() }
