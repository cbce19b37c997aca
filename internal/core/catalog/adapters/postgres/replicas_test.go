package postgres

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

func newMockReplicasRepository(t *testing.T) (*ReplicasRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewReplicasRepository(sqlxDB), mock
}

func TestReplicasRepository_Create(t *testing.T) {
	t.Parallel()

	t.Run("success without thumbnail", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockReplicasRepository(t)
		mediumID := domain.MediumID(uuid.New())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM media WHERE id = \$1\)`).
			WithArgs(uuid.UUID(mediumID)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(display_order\), 0\) \+ 1 FROM replicas WHERE medium_id = \$1`).
			WithArgs(uuid.UUID(mediumID)).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO replicas`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		original := ports.ImageData{MimeType: "image/png", Size: domain.Size{Width: 100, Height: 80}}
		replica, err := repo.Create(t.Context(), mediumID, nil, "file:///a.png", original)
		require.NoError(t, err)
		assert.Equal(t, mediumID, replica.MediumID)
		assert.Equal(t, uint32(1), replica.DisplayOrder)
		assert.Nil(t, replica.Thumbnail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("medium not found", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockReplicasRepository(t)
		mediumID := domain.MediumID(uuid.New())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM media WHERE id = \$1\)`).
			WithArgs(uuid.UUID(mediumID)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.Create(t.Context(), mediumID, nil, "file:///a.png", ports.ImageData{})
		require.Error(t, err)
		var notFound *apperr.MediumNotFound
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("duplicate original url", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockReplicasRepository(t)
		mediumID := domain.MediumID(uuid.New())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM media WHERE id = \$1\)`).
			WithArgs(uuid.UUID(mediumID)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(display_order\), 0\) \+ 1 FROM replicas WHERE medium_id = \$1`).
			WithArgs(uuid.UUID(mediumID)).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO replicas`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "replicas_original_url_key"})

		_, err := repo.Create(t.Context(), mediumID, nil, "file:///a.png", ports.ImageData{})
		require.Error(t, err)
		var dup *apperr.ReplicaOriginalUrlDuplicate
		assert.ErrorAs(t, err, &dup)
	})
}

func TestReplicasRepository_FetchByIDs(t *testing.T) {
	t.Parallel()
	repo, mock := newMockReplicasRepository(t)

	replicaID := uuid.New()
	mediumID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "medium_id", "display_order", "original_url", "mime_type", "width", "height", "status", "created_at", "updated_at"}).
		AddRow(replicaID, mediumID, 1, "file:///a.png", "image/png", 100, 80, "ready", testNow, testNow)
	mock.ExpectQuery(`SELECT id, medium_id, display_order, original_url, mime_type, width, height, status, created_at, updated_at\s+FROM replicas WHERE id = ANY`).
		WithArgs(pq.Array([]uuid.UUID{replicaID})).
		WillReturnRows(rows)

	mock.ExpectQuery(`SELECT id, width, height FROM thumbnails WHERE replica_id = \$1`).
		WithArgs(replicaID).
		WillReturnError(sql.ErrNoRows)

	result, err := repo.FetchByIDs(t.Context(), []domain.ReplicaID{domain.ReplicaID(replicaID)})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Nil(t, result[0].Thumbnail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplicasRepository_DeleteByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockReplicasRepository(t)

	id := domain.ReplicaID(uuid.New())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT medium_id, display_order FROM replicas WHERE id = \$1 FOR UPDATE`).
		WithArgs(uuid.UUID(id)).
		WillReturnError(sql.ErrNoRows)

	result, err := repo.DeleteByID(t.Context(), id)
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestReplicasRepository_DeleteByID_CompactsDisplayOrder(t *testing.T) {
	t.Parallel()
	repo, mock := newMockReplicasRepository(t)

	id := domain.ReplicaID(uuid.New())
	mediumID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT medium_id, display_order FROM replicas WHERE id = \$1 FOR UPDATE`).
		WithArgs(uuid.UUID(id)).
		WillReturnRows(sqlmock.NewRows([]string{"medium_id", "display_order"}).AddRow(mediumID, 2))
	mock.ExpectExec(`DELETE FROM replicas WHERE id = \$1`).
		WithArgs(uuid.UUID(id)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE replicas SET display_order = display_order - 1 WHERE medium_id = \$1 AND display_order > \$2`).
		WithArgs(mediumID, 2).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	result, err := repo.DeleteByID(t.Context(), id)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
