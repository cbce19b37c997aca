package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	t.Run("matches any unique violation when constraint is empty", func(t *testing.T) {
		err := &pq.Error{Code: "23505", Constraint: "tags_name_key"}
		assert.True(t, isUniqueViolation(err, ""))
	})

	t.Run("matches only the named constraint", func(t *testing.T) {
		err := &pq.Error{Code: "23505", Constraint: "tags_name_key"}
		assert.True(t, isUniqueViolation(err, "tags_name_key"))
		assert.False(t, isUniqueViolation(err, "other_key"))
	})

	t.Run("rejects non-unique-violation codes", func(t *testing.T) {
		err := &pq.Error{Code: "23503", Constraint: "tags_name_key"}
		assert.False(t, isUniqueViolation(err, ""))
	})

	t.Run("rejects non-pq errors", func(t *testing.T) {
		assert.False(t, isUniqueViolation(errors.New("boom"), ""))
	})
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	t.Run("matches any foreign key violation when constraint is empty", func(t *testing.T) {
		err := &pq.Error{Code: "23503", Constraint: "sources_external_service_id_fkey"}
		assert.True(t, isForeignKeyViolation(err, ""))
	})

	t.Run("matches only the named constraint", func(t *testing.T) {
		err := &pq.Error{Code: "23503", Constraint: "sources_external_service_id_fkey"}
		assert.True(t, isForeignKeyViolation(err, "sources_external_service_id_fkey"))
		assert.False(t, isForeignKeyViolation(err, "other_fkey"))
	})

	t.Run("rejects non-foreign-key codes", func(t *testing.T) {
		err := &pq.Error{Code: "23505"}
		assert.False(t, isForeignKeyViolation(err, ""))
	})

	t.Run("rejects non-pq errors", func(t *testing.T) {
		assert.False(t, isForeignKeyViolation(errors.New("boom"), ""))
	})
}
