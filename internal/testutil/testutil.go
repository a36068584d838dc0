// Package testutil provides fakes shared by the thumbnail pipeline tests.
package testutil

import (
	"context"
	"image"
	"sync"
)

// NewImage returns a solid-color RGBA image with the given dimensions.
func NewImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0x20
		img.Pix[i+1] = 0x70
		img.Pix[i+2] = 0xc0
		img.Pix[i+3] = 0xff
	}
	return img
}

// Delivery is one OnThumbnail callback observed by a FakeConsumer.
type Delivery struct {
	Path string
	Img  image.Image
}

// FakeConsumer records thumbnail deliveries and signals each one on C.
type FakeConsumer struct {
	// C receives every delivery in callback order. Buffered so the
	// provider's dispatch goroutine never blocks on a slow test.
	C chan Delivery

	mu        sync.Mutex
	delivered []Delivery
}

// NewFakeConsumer returns a consumer ready to record deliveries.
func NewFakeConsumer() *FakeConsumer {
	return &FakeConsumer{C: make(chan Delivery, 64)}
}

// OnThumbnail implements the consumer callback.
func (c *FakeConsumer) OnThumbnail(path string, img image.Image) {
	c.mu.Lock()
	c.delivered = append(c.delivered, Delivery{Path: path, Img: img})
	c.mu.Unlock()
	c.C <- Delivery{Path: path, Img: img}
}

// Delivered returns a copy of all deliveries observed so far.
func (c *FakeConsumer) Delivered() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Delivery, len(c.delivered))
	copy(out, c.delivered)
	return out
}

// FakeEngine implements decode.Engine with scripted per-path results.
//
// In blocking mode every Decode parks until Release is called, letting
// tests control exactly when each in-flight decode completes.
type FakeEngine struct {
	mu      sync.Mutex
	images  map[string]image.Image
	errs    map[string]error
	calls   []string
	closes  int
	proceed chan struct{}
}

// NewFakeEngine returns an engine with no scripted results. Unscripted
// paths decode to a 1x1 image.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		images: make(map[string]image.Image),
		errs:   make(map[string]error),
	}
}

// SetImage scripts a successful decode for path.
func (e *FakeEngine) SetImage(path string, img image.Image) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.images[path] = img
}

// SetError scripts a failed decode for path.
func (e *FakeEngine) SetError(path string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs[path] = err
}

// Block switches the engine to blocking mode: each Decode waits for one
// Release call before completing.
func (e *FakeEngine) Block() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.proceed = make(chan struct{})
}

// Release lets exactly one blocked (or future) Decode complete.
func (e *FakeEngine) Release() {
	e.mu.Lock()
	ch := e.proceed
	e.mu.Unlock()
	ch <- struct{}{}
}

// Decode implements decode.Engine.
func (e *FakeEngine) Decode(ctx context.Context, path string, targetSize int) (image.Image, error) {
	e.mu.Lock()
	e.calls = append(e.calls, path)
	img, okImg := e.images[path]
	err, okErr := e.errs[path]
	proceed := e.proceed
	e.mu.Unlock()

	if proceed != nil {
		select {
		case <-proceed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if okErr {
		return nil, err
	}
	if !okImg {
		img = NewImage(1, 1)
	}
	return img, nil
}

// Close implements decode.Engine.
func (e *FakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closes++
	return nil
}

// Calls returns every decoded path in call order.
func (e *FakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// CloseCount returns how many times Close was called.
func (e *FakeEngine) CloseCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closes
}
