package thumb

import "image"

// Consumer receives thumbnails decoded on its behalf.
//
// Consumers are compared with == to match queued requests during Cancel
// and to supersede older requests, so implementations should be pointer
// types.
type Consumer interface {
	// OnThumbnail delivers a decoded image for path. It runs on the
	// provider's dispatch goroutine and must not block for long.
	//
	// Delivery can be stale: the consumer may have been rebound to a
	// different path since it issued the request. Implementations must
	// compare path against the path they currently want and ignore
	// mismatches.
	OnThumbnail(path string, img image.Image)
}
