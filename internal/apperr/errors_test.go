package apperr

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMediumNotFoundCode(t *testing.T) {
	id := uuid.New()
	err := &MediumNotFound{ID: id}

	assert.Equal(t, CodeMediumNotFound, err.Code())
	assert.Contains(t, err.Error(), id.String())
}

func TestMediumReplicasNotMatch(t *testing.T) {
	mediumID := uuid.New()
	expected := []uuid.UUID{uuid.New(), uuid.New()}
	actual := []uuid.UUID{uuid.New()}

	err := &MediumReplicasNotMatch{MediumID: mediumID, Expected: expected, Actual: actual}

	assert.Equal(t, CodeMediumReplicasNotMatch, err.Code())
	assert.Contains(t, err.Error(), mediumID.String())
}

func TestTagAttachingToDescendantCode(t *testing.T) {
	id, parentID := uuid.New(), uuid.New()
	err := &TagAttachingToDescendant{ID: id, ParentID: parentID}

	assert.Equal(t, CodeTagAttachingToDescendant, err.Code())
}

func TestObjectGetFailedUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ObjectGetFailed{URL: "file:///tmp/x", Err: cause}

	assert.Equal(t, CodeObjectGetFailed, err.Code())
	assert.ErrorIs(t, err, cause)
}

func TestWrapPreservesStructuredKind(t *testing.T) {
	original := &ReplicaNotFound{ID: uuid.New()}

	wrapped := Wrap(original)

	assert.Same(t, error(original), wrapped)
}

func TestWrapLiftsPlainErrorToOther(t *testing.T) {
	plain := errors.New("boom")

	wrapped := Wrap(plain)

	var other *Other
	assert.True(t, errors.As(wrapped, &other))
	assert.Equal(t, plain, other.Err)
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSourceNotFound, CodeOf(&SourceNotFound{ID: uuid.New()}))
	assert.Equal(t, CodeOther, CodeOf(errors.New("unclassified")))
}
