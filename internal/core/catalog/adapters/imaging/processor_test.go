package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_GenerateThumbnail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProcessor(ctx, 2)

	raw := encodeTestPNG(t, 1024, 512)

	original, thumbnail, err := p.GenerateThumbnail(context.Background(), bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "image/png", original.MimeType)
	assert.Equal(t, uint32(1024), original.Size.Width)
	assert.Equal(t, uint32(512), original.Size.Height)

	assert.Equal(t, uint32(ThumbnailMaxDimension), thumbnail.Size.Width)
	assert.Equal(t, uint32(ThumbnailMaxDimension/2), thumbnail.Size.Height)
	assert.NotEmpty(t, thumbnail.Bytes)
}

func TestProcessor_GenerateThumbnail_SmallImageUnscaled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProcessor(ctx, 1)

	raw := encodeTestPNG(t, 64, 48)
	original, thumbnail, err := p.GenerateThumbnail(context.Background(), bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, original.Size, thumbnail.Size)
}

func TestProcessor_GenerateThumbnail_InvalidImage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProcessor(ctx, 1)

	_, _, err := p.GenerateThumbnail(context.Background(), bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestProcessor_GenerateThumbnail_CallerContextCanceled(t *testing.T) {
	// No worker is draining p.jobs, so the send in GenerateThumbnail blocks
	// forever; the only way out is the caller's context winning the select.
	p := &Processor{jobs: make(chan job)}

	callCtx, callCancel := context.WithCancel(context.Background())
	callCancel()

	_, _, err := p.GenerateThumbnail(callCtx, bytes.NewReader(encodeTestPNG(t, 8, 8)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessor_ConcurrentRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProcessor(ctx, 4)

	raw := encodeTestPNG(t, 32, 32)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := p.GenerateThumbnail(context.Background(), bytes.NewReader(raw))
			assert.NoError(t, err)
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for concurrent thumbnail requests")
	}
}
