package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

func newMockMediaRepository(t *testing.T) (*MediaRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewMediaRepository(sqlxDB, NewTagsRepository(sqlxDB)), mock
}

func TestMediaRepository_Create_NoAttachments(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO media`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	medium, err := repo.Create(t.Context(), ports.MediaCreateParams{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, uuid.UUID(medium.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_Create_SourceNotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	sourceID := domain.SourceID(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO media`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM sources WHERE id = \$1\)`).
		WithArgs(uuid.UUID(sourceID)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.Create(t.Context(), ports.MediaCreateParams{SourceIDs: []domain.SourceID{sourceID}})
	require.Error(t, err)
	var notFound *apperr.SourceNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMediaRepository_FetchByIDs_NoHydration(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(id, testNow, testNow)
	mock.ExpectQuery(`SELECT id, created_at, updated_at FROM media WHERE id = ANY`).
		WillReturnRows(rows)

	result, err := repo.FetchByIDs(t.Context(), []domain.MediumID{domain.MediumID(id)}, ports.MediaHydration{})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Nil(t, result[0].Sources)
	assert.Nil(t, result[0].Replicas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_FetchByIDs_EmptyInputSkipsQuery(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	result, err := repo.FetchByIDs(t.Context(), nil, ports.MediaHydration{})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_FetchAll_BackwardReversesResult(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	cursorID := uuid.New()
	cursor := &ports.MediaCursor{CreatedAt: testNow, ID: domain.MediumID(cursorID)}
	idA, idB := uuid.New(), uuid.New()
	olderTime := testNow.Add(-time.Hour)

	mock.ExpectQuery(`SELECT id, created_at, updated_at FROM media WHERE \(created_at, id\) < \(\$1, \$2\) ORDER BY created_at DESC, id DESC LIMIT \$3`).
		WithArgs(testNow, cursorID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(idA, testNow, testNow).
			AddRow(idB, olderTime, testNow))

	result, err := repo.FetchAll(t.Context(), ports.MediaFetchAllParams{
		Cursor:    cursor,
		Order:     domain.OrderAscending,
		Direction: domain.DirectionBackward,
	})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, domain.MediumID(idB), result[0].ID)
	assert.Equal(t, domain.MediumID(idA), result[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_DeleteByID(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	id := domain.MediumID(uuid.New())
	mock.ExpectExec(`DELETE FROM media WHERE id = \$1`).
		WithArgs(uuid.UUID(id)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := repo.DeleteByID(t.Context(), id)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaRepository_UpdateByID_ReplicaOrderMismatchReportsDisplayOrderSequence(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	id := domain.MediumID(uuid.New())
	r1, r2, r3 := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, created_at, updated_at FROM media WHERE id = \$1 FOR UPDATE`).
		WithArgs(uuid.UUID(id)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.UUID(id), testNow, testNow))
	mock.ExpectExec(`UPDATE media SET created_at = \$1, updated_at = \$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Rows come back ordered by display_order (r1, r2, r3); the caller only
	// supplies two of the three ids, so the mismatch is reported against
	// that same display-order sequence rather than arbitrary row order.
	mock.ExpectQuery(`SELECT id FROM replicas WHERE medium_id = \$1 ORDER BY display_order ASC`).
		WithArgs(uuid.UUID(id)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(r1).AddRow(r2).AddRow(r3))

	_, err := repo.UpdateByID(t.Context(), id, ports.MediaUpdateParams{
		ReplicaOrder: []domain.ReplicaID{domain.ReplicaID(r2), domain.ReplicaID(r1)},
	})
	require.Error(t, err)
	var mismatch *apperr.MediumReplicasNotMatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []uuid.UUID{r1, r2, r3}, mismatch.Expected)
}

func TestMediaRepository_UpdateByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockMediaRepository(t)

	id := domain.MediumID(uuid.New())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, created_at, updated_at FROM media WHERE id = \$1 FOR UPDATE`).
		WithArgs(uuid.UUID(id)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateByID(t.Context(), id, ports.MediaUpdateParams{})
	require.Error(t, err)
	var notFound *apperr.MediumNotFound
	assert.ErrorAs(t, err, &notFound)
}
