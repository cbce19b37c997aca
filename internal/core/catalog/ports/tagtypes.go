package ports

import (
	"context"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// TagTypesRepository is plain CRUD over tag types, unique on slug.
type TagTypesRepository interface {
	Create(ctx context.Context, slug, name, kana string) (domain.TagType, error)
	FetchByIDs(ctx context.Context, ids []domain.TagTypeID) ([]domain.TagType, error)
	FetchAll(ctx context.Context) ([]domain.TagType, error)
	UpdateByID(ctx context.Context, id domain.TagTypeID, slug, name *string) (domain.TagType, error)

	// DeleteByID fails with apperr.TagTypeInUse if media_tags rows still
	// reference id.
	DeleteByID(ctx context.Context, id domain.TagTypeID) (domain.DeleteResult, error)
}
