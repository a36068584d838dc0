// Package imagefile provides a decode engine over local image files.
package imagefile

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"
	"runtime"

	// Formats registered with the image package for decoding.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"

	"github.com/meigma/thumb/decode"
)

// Interface compliance.
var _ decode.Engine = (*Engine)(nil)

// Engine decodes jpeg, png, gif, and bmp files from the local filesystem
// (or any fs.FS) and downscales them to thumbnail size.
//
// Pixel decoding is CPU-bound, so a semaphore bounds the number of decodes
// running at once across all callers of one Engine. Providers only issue
// one decode at a time each; the bound matters when many providers share
// an Engine-per-provider setup on a small machine.
type Engine struct {
	fsys fs.FS
	sem  *semaphore.Weighted
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	fsys        fs.FS
	concurrency int64
}

// WithFS decodes paths relative to fsys instead of the OS filesystem.
// Paths must then satisfy fs.ValidPath.
func WithFS(fsys fs.FS) Option {
	return func(c *config) {
		c.fsys = fsys
	}
}

// WithConcurrency bounds the number of decodes running at once. Values
// <= 0 use GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = int64(n)
	}
}

// New returns an Engine decoding from the OS filesystem unless WithFS is
// given.
func New(opts ...Option) *Engine {
	cfg := config{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.concurrency <= 0 {
		cfg.concurrency = int64(runtime.GOMAXPROCS(0))
	}
	return &Engine{
		fsys: cfg.fsys,
		sem:  semaphore.NewWeighted(cfg.concurrency),
	}
}

// Decode reads the image at path and returns it scaled so its longer edge
// is at most targetSize pixels. Images already within the target size are
// not upscaled. The result is always *image.RGBA, so its resident cost is
// the length of the pixel slice.
//
// Decode blocks while the concurrency bound is saturated; ctx cancels the
// wait.
func (e *Engine) Decode(ctx context.Context, path string, targetSize int) (image.Image, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	src, err := e.readImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", decode.ErrNoImage, path, err)
	}

	return scaleToFit(src, targetSize), nil
}

// Close implements decode.Engine. The engine holds no resources beyond its
// semaphore, so Close is a no-op.
func (e *Engine) Close() error {
	return nil
}

func (e *Engine) readImage(path string) (image.Image, error) {
	var (
		f   fs.File
		err error
	)
	if e.fsys != nil {
		f, err = e.fsys.Open(path)
	} else {
		f, err = os.Open(path) //nolint:gosec // callers choose which files to thumbnail
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// scaleToFit returns src converted to RGBA and downscaled so its longer
// edge is at most targetSize. targetSize <= 0 means no scaling.
func scaleToFit(src image.Image, targetSize int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := w, h
	longer := max(w, h)
	if targetSize > 0 && longer > targetSize {
		dw = max(1, w*targetSize/longer)
		dh = max(1, h*targetSize/longer)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	if dw == w && dh == h {
		draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}
	return dst
}
