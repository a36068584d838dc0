package thumb

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/meigma/thumb/cache"
	"github.com/meigma/thumb/decode"
)

// request describes one unit of pending work: decode path at targetSize
// and deliver to consumer.
type request struct {
	path       string
	targetSize int
	consumer   Consumer
}

// Provider orchestrates thumbnail decodes for one consumer-facing list.
//
// Requests check the shared cache first and otherwise join a FIFO queue
// drained one decode at a time: at most one engine call is outstanding per
// Provider. All queue and in-flight state is owned by a single dispatch
// goroutine, so the Provider needs no locks of its own; only the shared
// store is synchronized.
//
// A Provider owns its engine and releases it in Destroy. Create one
// Provider per list and share the cache handle between them.
type Provider struct {
	handle      *cache.Handle
	engine      decode.Engine
	logger      *slog.Logger
	defaultSize int

	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	destroyed atomic.Bool

	// Owned by the dispatch goroutine; never touched elsewhere.
	pending  []request
	inFlight *request
}

// NewProvider returns a Provider decoding through engine and caching
// through handle. The Provider takes ownership of engine.
func NewProvider(handle *cache.Handle, engine decode.Engine, opts ...Option) *Provider {
	p := &Provider{
		handle: handle,
		engine: engine,
		tasks:  make(chan func(), taskBacklog),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	go p.run()
	return p
}

// taskBacklog sizes the posted-task channel. Requests beyond the backlog
// briefly block the caller until the dispatch goroutine catches up.
const taskBacklog = 64

// Request asks for a thumbnail of the file at path, scaled to targetSize
// (0 uses the provider default).
//
// On a cache hit the image is returned synchronously with ok = true and no
// work is queued. Otherwise Request returns nil, false and the result
// arrives later through c.OnThumbnail — unless the decode fails, in which
// case no callback is made and the consumer keeps its placeholder.
//
// An empty path returns nil, false with no side effects.
func (p *Provider) Request(path string, targetSize int, c Consumer) (image.Image, bool) {
	if path == "" {
		return nil, false
	}
	if p.destroyed.Load() {
		p.logger.Warn("request on destroyed thumbnail provider", "path", path)
		return nil, false
	}
	if targetSize <= 0 {
		targetSize = p.defaultSize
	}

	if img, ok := p.handle.Acquire().Get(path); ok {
		return img, true
	}

	req := request{path: path, targetSize: targetSize, consumer: c}
	p.post(func() {
		p.pending = append(p.pending, req)
		p.dispatch()
	})
	return nil, false
}

// Cancel removes queued requests issued by c. A decode already in flight
// is unaffected: it runs to completion and its result is still cached for
// future requests, but c should ignore the stale callback (see Consumer).
// Cancelling a consumer with nothing queued is a no-op.
func (p *Provider) Cancel(c Consumer) {
	if p.destroyed.Load() {
		p.logger.Warn("cancel on destroyed thumbnail provider")
		return
	}
	p.post(func() {
		kept := p.pending[:0]
		for _, r := range p.pending {
			if r.consumer != c {
				kept = append(kept, r)
			}
		}
		for i := len(kept); i < len(p.pending); i++ {
			p.pending[i] = request{}
		}
		p.pending = kept
	})
}

// Destroy stops the dispatch goroutine and releases the engine. It is
// idempotent; every other method on a destroyed Provider is a defensive
// no-op. Destroy must not be called from inside an OnThumbnail callback.
func (p *Provider) Destroy() {
	if !p.destroyed.CompareAndSwap(false, true) {
		return
	}
	close(p.quit)
	<-p.done
	if err := p.engine.Close(); err != nil {
		p.logger.Warn("closing decode engine", "error", err)
	}
}

// post hands fn to the dispatch goroutine. Returns false if the Provider
// was destroyed before fn could be accepted.
func (p *Provider) post(fn func()) bool {
	select {
	case p.tasks <- fn:
		return true
	case <-p.quit:
		return false
	}
}

// run is the dispatch goroutine: the single context on which all queue
// mutation, in-flight transitions, and deliveries happen.
func (p *Provider) run() {
	defer close(p.done)
	for {
		select {
		case fn := <-p.tasks:
			fn()
		case <-p.quit:
			return
		}
	}
}

// dispatch drains the pending queue in strict FIFO order until a decode
// goes out or the queue is empty. Runs on the dispatch goroutine.
func (p *Provider) dispatch() {
	for p.inFlight == nil && len(p.pending) > 0 {
		req := p.pending[0]
		p.pending[0] = request{}
		p.pending = p.pending[1:]

		// A decode that completed while this request waited in line
		// may have filled the cache already.
		if img, ok := p.handle.Acquire().Get(req.path); ok {
			req.consumer.OnThumbnail(req.path, img)
			continue
		}

		p.inFlight = &req
		go p.decode(req)
	}
}

// decode runs off the dispatch goroutine and posts the completion back.
func (p *Provider) decode(req request) {
	img, err := p.engine.Decode(context.Background(), req.path, req.targetSize)
	posted := p.post(func() {
		p.complete(req, img, err)
	})
	if !posted && err == nil && usable(img) {
		// Provider destroyed mid-flight. Keep the finished work for
		// whoever requests this path next.
		p.handle.Acquire().Put(req.path, img, cache.ByteSize(img))
	}
}

// complete handles an engine completion on the dispatch goroutine. Failed
// or degenerate decodes deliver nothing and are never cached or retried;
// the loop always proceeds to the next queued request.
func (p *Provider) complete(req request, img image.Image, err error) {
	p.inFlight = nil
	switch {
	case err != nil:
		p.logger.Debug("thumbnail decode failed", "path", req.path, "error", err)
	case !usable(img):
		p.logger.Debug("thumbnail decode returned empty image", "path", req.path)
	default:
		p.handle.Acquire().Put(req.path, img, cache.ByteSize(img))
		req.consumer.OnThumbnail(req.path, img)
	}
	p.dispatch()
}

// usable reports whether img is a deliverable decode result.
func usable(img image.Image) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	return b.Dx() > 0 && b.Dy() > 0
}
