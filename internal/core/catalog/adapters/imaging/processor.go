// Package imaging implements ports.ImageProcessor using the standard
// library's image decoders plus golang.org/x/image/draw for resizing.
// Decoding and resizing are CPU-bound and block on large inputs, so every
// request is handed to a bounded worker pool instead of running inline on
// the caller's goroutine.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

// ThumbnailMaxDimension bounds the longest edge of a generated thumbnail.
const ThumbnailMaxDimension = 512

type job struct {
	stream io.Reader
	result chan jobResult
}

type jobResult struct {
	original  ports.OriginalImage
	thumbnail ports.ThumbnailImage
	err       error
}

// Processor runs thumbnail generation on a fixed-size worker pool, bridging
// the blocking decode/resize work into a channel-based request/response
// protocol so GenerateThumbnail only ever blocks on channel operations (the
// job send and the result receive).
type Processor struct {
	jobs chan job
}

// NewProcessor starts workers background goroutines and returns a Processor
// bound to them. Workers run until ctx is canceled.
func NewProcessor(ctx context.Context, workers int) *Processor {
	if workers < 1 {
		workers = 1
	}

	p := &Processor{jobs: make(chan job)}
	for i := 0; i < workers; i++ {
		go p.worker(ctx)
	}
	return p
}

func (p *Processor) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			original, thumbnail, err := decodeAndResize(j.stream)
			j.result <- jobResult{original: original, thumbnail: thumbnail, err: err}
		}
	}
}

// GenerateThumbnail hands stream to a worker and waits for its result,
// respecting ctx cancellation while waiting.
func (p *Processor) GenerateThumbnail(ctx context.Context, stream io.Reader) (ports.OriginalImage, ports.ThumbnailImage, error) {
	result := make(chan jobResult, 1)

	select {
	case p.jobs <- job{stream: stream, result: result}:
	case <-ctx.Done():
		return ports.OriginalImage{}, ports.ThumbnailImage{}, ctx.Err()
	}

	select {
	case r := <-result:
		return r.original, r.thumbnail, r.err
	case <-ctx.Done():
		return ports.OriginalImage{}, ports.ThumbnailImage{}, ctx.Err()
	}
}

func decodeAndResize(stream io.Reader) (ports.OriginalImage, ports.ThumbnailImage, error) {
	raw, err := io.ReadAll(stream)
	if err != nil {
		return ports.OriginalImage{}, ports.ThumbnailImage{}, fmt.Errorf("read image stream: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return ports.OriginalImage{}, ports.ThumbnailImage{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	originalSize := domain.Size{Width: uint32(bounds.Dx()), Height: uint32(bounds.Dy())}
	original := ports.OriginalImage{
		MimeType: mimeTypeForFormat(format),
		Size:     originalSize,
	}

	thumbWidth, thumbHeight := scaledDimensions(originalSize.Width, originalSize.Height, ThumbnailMaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, int(thumbWidth), int(thumbHeight)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := encodeJPEG(&buf, dst); err != nil {
		return ports.OriginalImage{}, ports.ThumbnailImage{}, fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbnail := ports.ThumbnailImage{
		Bytes: buf.Bytes(),
		Size:  domain.Size{Width: thumbWidth, Height: thumbHeight},
	}

	return original, thumbnail, nil
}

func scaledDimensions(width, height, maxDimension uint32) (uint32, uint32) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width >= height {
		scaled := uint32(float64(height) * float64(maxDimension) / float64(width))
		return maxDimension, scaled
	}
	scaled := uint32(float64(width) * float64(maxDimension) / float64(height))
	return scaled, maxDimension
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 85})
}

func mimeTypeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
