package ports

import (
	"context"
	"io"
	"time"
)

// EntryKind classifies an object-store entry.
type EntryKind string

const (
	EntryKindObject    EntryKind = "object"
	EntryKindContainer EntryKind = "container"
	EntryKindUnknown   EntryKind = "unknown"
)

// EntryMetadata carries filesystem-like stat information for an entry.
type EntryMetadata struct {
	Size       int64
	CreatedAt  time.Time
	AccessedAt time.Time
	ModifiedAt time.Time
}

// Entry describes one object-store item.
type Entry struct {
	Name     string
	URL      string
	Kind     EntryKind
	Metadata *EntryMetadata
}

// OverwritePolicy controls Put's behavior when the target URL is already
// occupied.
type OverwritePolicy string

const (
	OverwritePolicyOverwrite OverwritePolicy = "overwrite"
	OverwritePolicyFail      OverwritePolicy = "fail"
)

// ObjectsRepository is a polymorphic blob store keyed by URL scheme. Each
// implementation binds exactly one scheme per process; mixing schemes
// within one ObjectsRepository is not supported.
type ObjectsRepository interface {
	// Scheme reports the URL scheme this implementation serves (e.g.
	// "file", "s3").
	Scheme() string

	// Get fails with apperr.ObjectNotFound if nothing exists at url, or
	// apperr.ObjectGetFailed on any other I/O error.
	Get(ctx context.Context, url string) (Entry, io.ReadCloser, error)

	// Put fails with apperr.ObjectAlreadyExists when overwrite is Fail and
	// url is already occupied, or apperr.ObjectPutFailed on I/O error.
	Put(ctx context.Context, url string, data io.Reader, overwrite OverwritePolicy) (Entry, error)

	// List orders entries lexicographically by Name.
	List(ctx context.Context, prefixURL string) ([]Entry, error)

	// Delete reports whether an entry existed at url before deletion.
	Delete(ctx context.Context, url string) (deleted bool, err error)
}
