package domain

import "github.com/google/uuid"

// MediumID identifies a Medium. Newtype-wrapped so a ReplicaID can never be
// passed where a MediumID is expected, even though both wrap a uuid.UUID.
type MediumID uuid.UUID

// ReplicaID identifies a Replica.
type ReplicaID uuid.UUID

// ThumbnailID identifies a Thumbnail.
type ThumbnailID uuid.UUID

// TagID identifies a Tag.
type TagID uuid.UUID

// TagTypeID identifies a TagType.
type TagTypeID uuid.UUID

// SourceID identifies a Source.
type SourceID uuid.UUID

// ExternalServiceID identifies an ExternalService.
type ExternalServiceID uuid.UUID

func (id MediumID) String() string            { return uuid.UUID(id).String() }
func (id ReplicaID) String() string            { return uuid.UUID(id).String() }
func (id ThumbnailID) String() string          { return uuid.UUID(id).String() }
func (id TagID) String() string                { return uuid.UUID(id).String() }
func (id TagTypeID) String() string            { return uuid.UUID(id).String() }
func (id SourceID) String() string             { return uuid.UUID(id).String() }
func (id ExternalServiceID) String() string    { return uuid.UUID(id).String() }

func NewMediumID() MediumID                     { return MediumID(uuid.New()) }
func NewReplicaID() ReplicaID                   { return ReplicaID(uuid.New()) }
func NewThumbnailID() ThumbnailID               { return ThumbnailID(uuid.New()) }
func NewTagID() TagID                           { return TagID(uuid.New()) }
func NewTagTypeID() TagTypeID                   { return TagTypeID(uuid.New()) }
func NewSourceID() SourceID                     { return SourceID(uuid.New()) }
func NewExternalServiceID() ExternalServiceID   { return ExternalServiceID(uuid.New()) }

// TagDepth bounds how many ancestor ("parent") and descendant ("child")
// generations to hydrate alongside a tag.
type TagDepth struct {
	Parent uint32
	Child  uint32
}

// Order is the sort direction requested for a paginated fetch.
type Order string

const (
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
)

// Direction selects whether the cursor is a lower or upper pagination bound.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// DeleteResult reports the outcome of a delete_by_id call.
type DeleteResult struct {
	Deleted int
	Found   bool
}

// NotFound reports whether the target id did not exist.
func (r DeleteResult) NotFound() bool { return !r.Found }
