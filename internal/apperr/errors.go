// Package apperr defines the structured error taxonomy shared by every
// catalog repository and service. Each kind carries the fields a transport
// layer needs to render a response without parsing an error string.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Code identifies an error kind independent of its formatted message.
type Code string

const (
	CodeMediumNotFound              Code = "MEDIUM_NOT_FOUND"
	CodeMediumReplicasNotMatch      Code = "MEDIUM_REPLICAS_NOT_MATCH"
	CodeReplicaNotFound             Code = "REPLICA_NOT_FOUND"
	CodeReplicaOriginalUrlDuplicate Code = "REPLICA_ORIGINAL_URL_DUPLICATE"
	CodeThumbnailNotFound           Code = "THUMBNAIL_NOT_FOUND"
	CodeSourceNotFound              Code = "SOURCE_NOT_FOUND"
	CodeSourceAlreadyExists         Code = "SOURCE_ALREADY_EXISTS"
	CodeSourceMetadataInvalid       Code = "SOURCE_METADATA_INVALID"
	CodeExternalServiceNotFound     Code = "EXTERNAL_SERVICE_NOT_FOUND"
	CodeExternalServiceSlugDup      Code = "EXTERNAL_SERVICE_SLUG_DUPLICATE"
	CodeTagNotFound                 Code = "TAG_NOT_FOUND"
	CodeTagAttachingToDescendant    Code = "TAG_ATTACHING_TO_DESCENDANT"
	CodeTagChildrenExist            Code = "TAG_CHILDREN_EXIST"
	CodeTagTypeNotFound             Code = "TAG_TYPE_NOT_FOUND"
	CodeTagTypeInUse                Code = "TAG_TYPE_IN_USE"
	CodeObjectNotFound              Code = "OBJECT_NOT_FOUND"
	CodeObjectGetFailed             Code = "OBJECT_GET_FAILED"
	CodeObjectPutFailed             Code = "OBJECT_PUT_FAILED"
	CodeObjectAlreadyExists         Code = "OBJECT_ALREADY_EXISTS"
	CodeOther                       Code = "OTHER"
)

// Error is the common shape every structured catalog error satisfies.
// Transport layers type-switch on the concrete type to pull out fields;
// Code() lets generic logging/metrics code classify without a type switch.
type Error interface {
	error
	Code() Code
}

// MediumNotFound is returned when no medium exists for the given id.
type MediumNotFound struct{ ID uuid.UUID }

func (e *MediumNotFound) Error() string { return fmt.Sprintf("medium not found: %s", e.ID) }
func (e *MediumNotFound) Code() Code    { return CodeMediumNotFound }

// MediumReplicasNotMatch is returned when a medium's replica set update
// names replica ids that are not currently attached to it (or omits ones
// that are), depending on direction of the mismatch.
type MediumReplicasNotMatch struct {
	MediumID uuid.UUID
	Expected []uuid.UUID
	Actual   []uuid.UUID
}

func (e *MediumReplicasNotMatch) Error() string {
	return fmt.Sprintf("medium %s replicas do not match: expected %v, actual %v", e.MediumID, e.Expected, e.Actual)
}
func (e *MediumReplicasNotMatch) Code() Code { return CodeMediumReplicasNotMatch }

// ReplicaNotFound is returned when no replica exists for the given id.
type ReplicaNotFound struct{ ID uuid.UUID }

func (e *ReplicaNotFound) Error() string { return fmt.Sprintf("replica not found: %s", e.ID) }
func (e *ReplicaNotFound) Code() Code    { return CodeReplicaNotFound }

// ReplicaOriginalUrlDuplicate is returned when a replica's original_url
// collides with an existing replica's.
type ReplicaOriginalUrlDuplicate struct{ URL string }

func (e *ReplicaOriginalUrlDuplicate) Error() string {
	return fmt.Sprintf("replica original url already exists: %s", e.URL)
}
func (e *ReplicaOriginalUrlDuplicate) Code() Code { return CodeReplicaOriginalUrlDuplicate }

// ThumbnailNotFound is returned when no thumbnail exists for the given id.
type ThumbnailNotFound struct{ ID uuid.UUID }

func (e *ThumbnailNotFound) Error() string { return fmt.Sprintf("thumbnail not found: %s", e.ID) }
func (e *ThumbnailNotFound) Code() Code    { return CodeThumbnailNotFound }

// SourceNotFound is returned when no source exists for the given id.
type SourceNotFound struct{ ID uuid.UUID }

func (e *SourceNotFound) Error() string { return fmt.Sprintf("source not found: %s", e.ID) }
func (e *SourceNotFound) Code() Code    { return CodeSourceNotFound }

// SourceAlreadyExists is returned when creating a source whose
// (external_service_id, metadata identity) pair already exists.
type SourceAlreadyExists struct {
	ExternalServiceID uuid.UUID
	Metadata          string
}

func (e *SourceAlreadyExists) Error() string {
	return fmt.Sprintf("source already exists for service %s: %s", e.ExternalServiceID, e.Metadata)
}
func (e *SourceAlreadyExists) Code() Code { return CodeSourceAlreadyExists }

// SourceMetadataInvalid is returned when a source's metadata fails the
// kind-specific shape validation for its external service.
type SourceMetadataInvalid struct {
	Kind   string
	Reason string
}

func (e *SourceMetadataInvalid) Error() string {
	return fmt.Sprintf("invalid %s source metadata: %s", e.Kind, e.Reason)
}
func (e *SourceMetadataInvalid) Code() Code { return CodeSourceMetadataInvalid }

// ExternalServiceNotFound is returned when no external service exists for
// the given id.
type ExternalServiceNotFound struct{ ID uuid.UUID }

func (e *ExternalServiceNotFound) Error() string {
	return fmt.Sprintf("external service not found: %s", e.ID)
}
func (e *ExternalServiceNotFound) Code() Code { return CodeExternalServiceNotFound }

// ExternalServiceSlugDuplicate is returned when creating or renaming an
// external service to a slug already in use.
type ExternalServiceSlugDuplicate struct{ Slug string }

func (e *ExternalServiceSlugDuplicate) Error() string {
	return fmt.Sprintf("external service slug already exists: %s", e.Slug)
}
func (e *ExternalServiceSlugDuplicate) Code() Code { return CodeExternalServiceSlugDup }

// TagNotFound is returned when no tag exists for the given id.
type TagNotFound struct{ ID uuid.UUID }

func (e *TagNotFound) Error() string { return fmt.Sprintf("tag not found: %s", e.ID) }
func (e *TagNotFound) Code() Code    { return CodeTagNotFound }

// TagAttachingToDescendant is returned when attaching id as a child of
// parentID would create a cycle because parentID is already a descendant
// of id.
type TagAttachingToDescendant struct {
	ID       uuid.UUID
	ParentID uuid.UUID
}

func (e *TagAttachingToDescendant) Error() string {
	return fmt.Sprintf("tag %s cannot attach to descendant %s", e.ID, e.ParentID)
}
func (e *TagAttachingToDescendant) Code() Code { return CodeTagAttachingToDescendant }

// TagChildrenExist is returned when deleting a tag that still has children
// attached.
type TagChildrenExist struct{ ID uuid.UUID }

func (e *TagChildrenExist) Error() string {
	return fmt.Sprintf("tag %s still has children attached", e.ID)
}
func (e *TagChildrenExist) Code() Code { return CodeTagChildrenExist }

// TagTypeNotFound is returned when no tag type exists for the given id.
type TagTypeNotFound struct{ ID uuid.UUID }

func (e *TagTypeNotFound) Error() string { return fmt.Sprintf("tag type not found: %s", e.ID) }
func (e *TagTypeNotFound) Code() Code    { return CodeTagTypeNotFound }

// TagTypeInUse is returned when deleting a tag type that media tag
// attachments (media_tags rows) still reference.
type TagTypeInUse struct{ ID uuid.UUID }

func (e *TagTypeInUse) Error() string { return fmt.Sprintf("tag type %s is still in use", e.ID) }
func (e *TagTypeInUse) Code() Code    { return CodeTagTypeInUse }

// ObjectNotFound is returned when no object exists at the given URL.
type ObjectNotFound struct{ URL string }

func (e *ObjectNotFound) Error() string { return fmt.Sprintf("object not found: %s", e.URL) }
func (e *ObjectNotFound) Code() Code    { return CodeObjectNotFound }

// ObjectGetFailed is returned when reading an existing object fails.
type ObjectGetFailed struct {
	URL string
	Err error
}

func (e *ObjectGetFailed) Error() string { return fmt.Sprintf("failed to get object %s: %v", e.URL, e.Err) }
func (e *ObjectGetFailed) Unwrap() error  { return e.Err }
func (e *ObjectGetFailed) Code() Code     { return CodeObjectGetFailed }

// ObjectPutFailed is returned when writing an object fails.
type ObjectPutFailed struct {
	URL string
	Err error
}

func (e *ObjectPutFailed) Error() string { return fmt.Sprintf("failed to put object %s: %v", e.URL, e.Err) }
func (e *ObjectPutFailed) Unwrap() error  { return e.Err }
func (e *ObjectPutFailed) Code() Code     { return CodeObjectPutFailed }

// ObjectAlreadyExists is returned when putting an object at a URL that is
// already occupied and the adapter was asked not to overwrite it.
type ObjectAlreadyExists struct{ URL string }

func (e *ObjectAlreadyExists) Error() string { return fmt.Sprintf("object already exists: %s", e.URL) }
func (e *ObjectAlreadyExists) Code() Code    { return CodeObjectAlreadyExists }

// Other wraps any error that does not fit a structured kind. Repositories
// should reach for Other only for genuinely unclassified failures
// (connection drops, context cancellation) - never as a catch-all
// substitute for a kind listed above.
type Other struct{ Err error }

func (e *Other) Error() string { return e.Err.Error() }
func (e *Other) Unwrap() error { return e.Err }
func (e *Other) Code() Code    { return CodeOther }

// Wrap lifts a plain error into Other, unless it is already a structured
// Error, in which case it is returned unchanged.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var structured Error
	if errors.As(err, &structured) {
		return err
	}
	return &Other{Err: err}
}

// CodeOf returns the Code of err, or CodeOther if err is not a structured
// Error.
func CodeOf(err error) Code {
	var structured Error
	if errors.As(err, &structured) {
		return structured.Code()
	}
	return CodeOther
}
