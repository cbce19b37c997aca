package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// KeyBuilder builds consistent cache keys for the catalog domain.
// Keys follow the pattern: catalog:{entity}:{id}:{suffix}
type KeyBuilder struct{}

// NewKeyBuilder creates a new key builder.
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{}
}

// TagHydration returns the key for a tag hydrated to a given (parent, child) depth.
func (kb *KeyBuilder) TagHydration(tagID uuid.UUID, parentDepth, childDepth uint32) string {
	return fmt.Sprintf("catalog:tag:%s:depth:%d:%d", tagID, parentDepth, childDepth)
}

// TagAncestors returns the key for a tag's ancestor chain up to a depth.
func (kb *KeyBuilder) TagAncestors(tagID uuid.UUID, depth uint32) string {
	return fmt.Sprintf("catalog:tag:%s:ancestors:%d", tagID, depth)
}

// TagDescendants returns the key for a tag's descendant tree up to a depth.
func (kb *KeyBuilder) TagDescendants(tagID uuid.UUID, depth uint32) string {
	return fmt.Sprintf("catalog:tag:%s:descendants:%d", tagID, depth)
}

// TagPattern returns a glob pattern matching every key this builder
// produces for a tag.
func (kb *KeyBuilder) TagPattern(tagID uuid.UUID) string {
	return fmt.Sprintf("catalog:tag:%s:*", tagID)
}
