package imagefile

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/thumb/decode"
	"github.com/meigma/thumb/internal/testutil"
)

func pngFS(t *testing.T, path string, w, h int) fstest.MapFS {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.NewImage(w, h)))
	return fstest.MapFS{path: &fstest.MapFile{Data: buf.Bytes()}}
}

func TestDecodeScalesToFit(t *testing.T) {
	t.Parallel()

	e := New(WithFS(pngFS(t, "photo.png", 64, 32)))
	img, err := e.Decode(context.Background(), "photo.png", 16)
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, 16, b.Dx(), "longer edge scaled to target")
	assert.Equal(t, 8, b.Dy(), "aspect ratio preserved")
}

func TestDecodeNeverUpscales(t *testing.T) {
	t.Parallel()

	e := New(WithFS(pngFS(t, "small.png", 20, 10)))
	img, err := e.Decode(context.Background(), "small.png", 128)
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, 20, b.Dx())
	assert.Equal(t, 10, b.Dy())
}

func TestDecodeZeroTargetKeepsOriginalSize(t *testing.T) {
	t.Parallel()

	e := New(WithFS(pngFS(t, "orig.png", 12, 9)))
	img, err := e.Decode(context.Background(), "orig.png", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 9, img.Bounds().Dy())
}

func TestDecodeMissingFile(t *testing.T) {
	t.Parallel()

	e := New(WithFS(fstest.MapFS{}))
	img, err := e.Decode(context.Background(), "nope.png", 64)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, decode.ErrNoImage)
}

func TestDecodeCorruptData(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"junk.png": &fstest.MapFile{Data: []byte("not an image")}}
	e := New(WithFS(fsys))
	img, err := e.Decode(context.Background(), "junk.png", 64)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, decode.ErrNoImage)
}

func TestDecodeExtremeAspectRatioKeepsAtLeastOnePixel(t *testing.T) {
	t.Parallel()

	e := New(WithFS(pngFS(t, "strip.png", 400, 1)))
	img, err := e.Decode(context.Background(), "strip.png", 16)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy(), "height must never round down to zero")
}
