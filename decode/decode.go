// Package decode defines the boundary to the thumbnail decode engine.
//
// An Engine turns a file path into a raster image scaled for display at a
// given target size. Decoding is expected to be expensive; providers call
// Decode off their own dispatch goroutine and marshal the result back, so
// implementations only need to be safe for concurrent Decode calls, not
// aware of any dispatch discipline.
//
// The imagefile subpackage provides an Engine over local image files. Hosts
// with their own decoder (a sandboxed process, a GPU service) implement
// Engine directly.
package decode

import (
	"context"
	"errors"
	"image"
)

// ErrNoImage is returned when the engine cannot produce an image for a
// path: unreadable file, unsupported format, or corrupt data. Providers
// treat it as "no thumbnail available" rather than a fault.
var ErrNoImage = errors.New("decode: no image")

// Engine produces display-sized images from file paths.
type Engine interface {
	// Decode reads the file at path and returns an image scaled so its
	// longer edge is at most targetSize pixels. A nil error implies a
	// non-nil image; degenerate (zero-area) images are treated by
	// callers as failures.
	Decode(ctx context.Context, path string, targetSize int) (image.Image, error)

	// Close releases resources held by the engine. The engine must not
	// be used after Close.
	Close() error
}
