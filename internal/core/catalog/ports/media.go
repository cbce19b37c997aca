package ports

import (
	"context"
	"time"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// TagAttachment pairs a tag with the type it is attached under.
type TagAttachment struct {
	TagID     domain.TagID
	TagTypeID domain.TagTypeID
}

// MediaCreateParams is the input to MediaRepository.Create.
type MediaCreateParams struct {
	SourceIDs      []domain.SourceID
	CreatedAt      *time.Time
	TagAttachments []TagAttachment
	TagDepth       *domain.TagDepth
	Sources        bool
}

// MediaHydration selects which parts of a medium to load alongside it.
type MediaHydration struct {
	TagDepth *domain.TagDepth
	Replicas bool
	Sources  bool
}

// MediaFetchAllParams drives a keyset-paginated listing of media.
type MediaFetchAllParams struct {
	Hydration MediaHydration
	Cursor    *MediaCursor
	Order     domain.Order
	Direction domain.Direction
	Limit     int `validate:"min=0,max=500"`
}

// MediaUpdateParams is the input to MediaRepository.UpdateByID.
type MediaUpdateParams struct {
	AddSources    []domain.SourceID
	RemoveSources []domain.SourceID
	AddTags       []TagAttachment
	RemoveTags    []TagAttachment
	ReplicaOrder  []domain.ReplicaID
	CreatedAt     *time.Time
	Hydration     MediaHydration
}

// MediaRepository persists the media aggregate and hydrates it to
// caller-specified depth. Every multi-statement method runs inside a single
// transaction opened at the database's default isolation level, not
// SERIALIZABLE; on error the transaction rolls back and the error surfaces
// unchanged.
type MediaRepository interface {
	Create(ctx context.Context, params MediaCreateParams) (domain.Medium, error)

	// FetchByIDs returns media in the order requested, silently omitting
	// ids that do not exist.
	FetchByIDs(ctx context.Context, ids []domain.MediumID, hydration MediaHydration) ([]domain.Medium, error)

	FetchAll(ctx context.Context, params MediaFetchAllParams) ([]domain.Medium, error)

	// FetchBySourceIDs returns media that have at least one of the given
	// sources attached.
	FetchBySourceIDs(ctx context.Context, sourceIDs []domain.SourceID, params MediaFetchAllParams) ([]domain.Medium, error)

	// FetchByTagIDs returns media that have at least one of the given
	// (tag, tag_type) attachments.
	FetchByTagIDs(ctx context.Context, attachments []TagAttachment, params MediaFetchAllParams) ([]domain.Medium, error)

	UpdateByID(ctx context.Context, id domain.MediumID, params MediaUpdateParams) (domain.Medium, error)

	DeleteByID(ctx context.Context, id domain.MediumID) (domain.DeleteResult, error)
}
