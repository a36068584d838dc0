// Package thumb provides an asynchronous thumbnail pipeline for list UIs.
//
// A [Provider] serves one consumer-facing list: it answers thumbnail
// requests from a process-wide byte-budgeted cache when it can, and
// otherwise queues them and decodes one at a time through a
// [decode.Engine], delivering each result via callback. The cache is
// shared across providers through a [cache.Handle] and may be reclaimed
// under memory pressure at any time; providers rebuild it transparently.
//
// # Quick Start
//
// Share one handle, give each list its own provider:
//
//	handle := cache.NewHandle(cache.WithMaxBytes(5 << 20))
//	p := thumb.NewProvider(handle, imagefile.New())
//	defer p.Destroy()
//
//	if img, ok := p.Request("/downloads/photo.jpg", 128, item); ok {
//	    item.Show(img) // cache hit, image available now
//	}
//	// otherwise item.OnThumbnail fires once the decode finishes
//
// Consumers that get rebound to a different list entry should call
// [Provider.Cancel] so queued work for the old entry is skipped.
//
// # Delivery and staleness
//
// A consumer can receive a callback for a request it no longer cares
// about: results for superseded or cancelled requests still arrive if the
// decode was already in flight. OnThumbnail implementations must check the
// delivered path against the path they currently want and drop mismatches.
package thumb
