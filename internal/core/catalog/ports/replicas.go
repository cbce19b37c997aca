package ports

import (
	"context"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// ImageData is a decoded image ready to be persisted by ReplicasRepository.
type ImageData struct {
	Bytes    []byte
	MimeType string
	Size     domain.Size
}

// ReplicasRepository manages a medium's ordered list of replicas and their
// thumbnails.
type ReplicasRepository interface {
	// Create fails with apperr.MediumNotFound if mediumID does not exist
	// and apperr.ReplicaOriginalUrlDuplicate if originalURL is already
	// registered on another replica. DisplayOrder is assigned as
	// 1 + max(existing display_order for this medium), or 1 if none exist.
	Create(ctx context.Context, mediumID domain.MediumID, thumbnail *ImageData, originalURL string, original ImageData) (domain.Replica, error)

	FetchByIDs(ctx context.Context, ids []domain.ReplicaID) ([]domain.Replica, error)

	// FetchByOriginalURL returns (zero, false) if no replica has that URL.
	FetchByOriginalURL(ctx context.Context, url string) (domain.Replica, bool, error)

	// FetchThumbnailByID fails with apperr.ThumbnailNotFound when the
	// replica has no thumbnail.
	FetchThumbnailByID(ctx context.Context, id domain.ReplicaID) ([]byte, error)

	UpdateByID(ctx context.Context, id domain.ReplicaID, thumbnail *ImageData, originalURL *string, original *ImageData) (domain.Replica, error)

	// DeleteByID removes the replica and its thumbnail, then compacts the
	// remaining replicas of the same medium to dense 1..N-1 display orders,
	// preserving their relative order.
	DeleteByID(ctx context.Context, id domain.ReplicaID) (domain.DeleteResult, error)
}
