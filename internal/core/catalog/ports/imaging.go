package ports

import (
	"context"
	"io"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// OriginalImage reports the geometry and MIME type the processor decoded
// from the original byte stream, without re-reading it.
type OriginalImage struct {
	MimeType string
	Size     domain.Size
}

// ThumbnailImage is the derived, downscaled rendering plus its geometry.
type ThumbnailImage struct {
	Bytes []byte
	Size  domain.Size
}

// ImageProcessor decodes an original image and derives a thumbnail from it.
// Decoding may use a blocking library; implementations must offload that
// work (e.g. to a worker pool) so the caller's goroutine is never blocked
// on image I/O beyond a channel send/receive.
type ImageProcessor interface {
	GenerateThumbnail(ctx context.Context, stream io.Reader) (OriginalImage, ThumbnailImage, error)
}
