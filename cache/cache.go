// Package cache provides the shared in-memory thumbnail store.
//
// The store maps file paths to decoded images under a byte budget, evicting
// least-recently-used entries when the budget is exceeded. One store is
// shared by every provider in the process; access it through a [Handle],
// which models the store's reclaimable lifetime: the runtime (or the host
// application, under memory pressure) may drop the store at any point
// between two accesses, and the next access transparently rebuilds it empty.
//
// Nothing in this package persists; a reclaimed store loses all entries.
package cache

import "image"

// DefaultMaxBytes is the byte budget applied when none is configured.
// It bounds the aggregate cost of all cached thumbnails in the process.
const DefaultMaxBytes int64 = 5 << 20

// Store maps file paths to decoded thumbnail images under a byte budget.
//
// Implementations must be safe for concurrent use: the store is shared
// across providers that may run on different goroutines.
type Store interface {
	// Get retrieves the image cached for path and marks it most recently
	// used. Returns nil, false on a miss.
	Get(path string) (image.Image, bool)

	// Put inserts or replaces the image cached for path, accounting cost
	// bytes against the budget and evicting least-recently-used entries
	// until the aggregate cost fits. An image whose cost alone exceeds
	// the budget is not stored.
	Put(path string, img image.Image, cost int)

	// Len returns the number of cached entries.
	Len() int

	// SizeBytes returns the aggregate cost of all cached entries.
	SizeBytes() int64

	// MaxBytes returns the configured byte budget.
	MaxBytes() int64
}

// ByteSize reports the resident memory cost of a decoded image.
//
// For the pixel formats produced by the decode engines the cost is the
// length of the backing pixel slice; other implementations fall back to a
// four-bytes-per-pixel estimate over the image bounds.
func ByteSize(img image.Image) int {
	switch m := img.(type) {
	case *image.RGBA:
		return len(m.Pix)
	case *image.NRGBA:
		return len(m.Pix)
	case *image.Gray:
		return len(m.Pix)
	case *image.YCbCr:
		return len(m.Y) + len(m.Cb) + len(m.Cr)
	default:
		b := img.Bounds()
		return b.Dx() * b.Dy() * 4
	}
}
