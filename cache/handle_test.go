package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/thumb/internal/testutil"
)

func TestHandleBuildsLazily(t *testing.T) {
	t.Parallel()

	h := NewHandle(WithMaxBytes(1 << 10))
	first := h.Acquire()
	require.NotNil(t, first)
	assert.Equal(t, int64(1<<10), first.MaxBytes())

	// Repeated access returns the same instance until a reclaim.
	assert.Same(t, first, h.Acquire())
}

func TestHandleReclaimRebuildsEmpty(t *testing.T) {
	t.Parallel()

	h := NewHandle()
	img := testutil.NewImage(2, 2)
	h.Acquire().Put("/a", img, ByteSize(img))

	_, ok := h.Acquire().Get("/a")
	require.True(t, ok, "read-your-own-write within one store instance")

	h.Reclaim()

	rebuilt := h.Acquire()
	_, ok = rebuilt.Get("/a")
	assert.False(t, ok, "reclaimed store must come back empty")
	assert.Equal(t, 0, rebuilt.Len())
}

func TestHandleReclaimBeforeFirstAcquire(t *testing.T) {
	t.Parallel()

	h := NewHandle()
	h.Reclaim()
	assert.NotNil(t, h.Acquire())
}

func TestHandleStoreFactoryUsedOnRebuild(t *testing.T) {
	t.Parallel()

	builds := 0
	h := NewHandle(WithStoreFactory(func() Store {
		builds++
		return NewSizedLRU(512)
	}))

	h.Acquire()
	h.Acquire()
	assert.Equal(t, 1, builds)

	h.Reclaim()
	h.Acquire()
	assert.Equal(t, 2, builds)
}

func TestHandleConcurrentAcquire(t *testing.T) {
	t.Parallel()

	h := NewHandle()
	var wg sync.WaitGroup
	stores := make([]Store, 16)
	for i := range stores {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			stores[i] = h.Acquire()
		}()
	}
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s, "concurrent accessors must share one store")
	}
}
