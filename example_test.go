package thumb_test

import (
	"image"
	"sync"

	"github.com/meigma/thumb"
	"github.com/meigma/thumb/cache"
	"github.com/meigma/thumb/decode/imagefile"
)

// row is a list row showing one downloaded file. It applies a thumbnail
// only if the delivery matches the path it is currently bound to, which
// filters out stale callbacks from superseded requests.
type row struct {
	mu    sync.Mutex
	path  string
	thumb image.Image
}

func (r *row) OnThumbnail(path string, img image.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path != r.path {
		return // rebound since the request went out
	}
	r.thumb = img
}

func (r *row) bind(p *thumb.Provider, path string) {
	r.mu.Lock()
	r.path = path
	r.thumb = nil
	r.mu.Unlock()

	p.Cancel(r)
	if img, ok := p.Request(path, 128, r); ok {
		r.mu.Lock()
		r.thumb = img
		r.mu.Unlock()
	}
}

func Example() {
	handle := cache.NewHandle(cache.WithMaxBytes(5 << 20))
	p := thumb.NewProvider(handle, imagefile.New())
	defer p.Destroy()

	r := &row{}
	r.bind(p, "/downloads/photo.jpg")
	r.bind(p, "/downloads/report.png") // rebind cancels the queued decode
}
