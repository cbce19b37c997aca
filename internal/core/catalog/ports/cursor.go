package ports

import (
	"time"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// MaxPageLimit is the hard cap applied to every keyset-paginated fetch.
const MaxPageLimit = 100

// MediaCursor is the pagination boundary for MediaRepository fetches: the
// sort key is the medium's created_at, paired with its id to break ties.
type MediaCursor struct {
	CreatedAt time.Time
	ID        domain.MediumID
}

// TagCursor is the pagination boundary for TagsRepository fetches: the sort
// key is the tag's kana, paired with its id to break ties.
type TagCursor struct {
	Kana string
	ID   domain.TagID
}

// ClampLimit enforces the [1, MaxPageLimit] contract on a requested limit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
