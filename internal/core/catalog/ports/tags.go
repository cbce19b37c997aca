package ports

import (
	"context"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// TagFetchAllParams drives a keyset-paginated listing of tags.
type TagFetchAllParams struct {
	Depth     domain.TagDepth
	RootOnly  bool
	Cursor    *TagCursor
	Order     domain.Order
	Direction domain.Direction
	Limit     int `validate:"min=0,max=500"`
}

// TagUpdateParams is the input to TagsRepository.UpdateByID.
type TagUpdateParams struct {
	Name          *string `validate:"omitempty,min=1,max=200"`
	Kana          *string `validate:"omitempty,max=200"`
	AddAliases    []string
	RemoveAliases []string
	Depth         domain.TagDepth
}

// TagsRepository maintains a forest of tags via a closure table and answers
// depth-bounded ancestor/descendant queries. Attach/detach recompute
// closure rows only for the moved subtree.
type TagsRepository interface {
	Create(ctx context.Context, name, kana string, aliases []string, parent *domain.TagID, depth domain.TagDepth) (domain.Tag, error)

	FetchAll(ctx context.Context, params TagFetchAllParams) ([]domain.Tag, error)

	FetchByIDs(ctx context.Context, ids []domain.TagID, depth domain.TagDepth) ([]domain.Tag, error)

	// FetchByNameOrAliasLike does a case-sensitive substring match against
	// name, kana, or any alias; results are ordered (kana, id) ascending.
	FetchByNameOrAliasLike(ctx context.Context, needle string, depth domain.TagDepth) ([]domain.Tag, error)

	UpdateByID(ctx context.Context, id domain.TagID, params TagUpdateParams) (domain.Tag, error)

	// AttachByID reparents id under newParent. Fails with
	// apperr.TagAttachingToDescendant if newParent is id or a descendant of
	// id.
	AttachByID(ctx context.Context, id, newParent domain.TagID, depth domain.TagDepth) (domain.Tag, error)

	// DetachByID removes id's parent edge; the subtree becomes a new root.
	DetachByID(ctx context.Context, id domain.TagID, depth domain.TagDepth) (domain.Tag, error)

	// DeleteByID fails with apperr.TagChildrenExist when recursive is false
	// and id has descendants.
	DeleteByID(ctx context.Context, id domain.TagID, recursive bool) (domain.DeleteResult, error)
}
