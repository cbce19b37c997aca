package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// TagTypesRepository implements ports.TagTypesRepository over Postgres.
type TagTypesRepository struct {
	db *sqlx.DB
}

// NewTagTypesRepository wires a Postgres-backed TagTypesRepository.
func NewTagTypesRepository(db *sqlx.DB) *TagTypesRepository {
	return &TagTypesRepository{db: db}
}

type tagTypeRow struct {
	ID   uuid.UUID `db:"id"`
	Slug string    `db:"slug"`
	Name string    `db:"name"`
	Kana string    `db:"kana"`
}

func (r tagTypeRow) toDomain() domain.TagType {
	return domain.TagType{
		ID:   domain.TagTypeID(r.ID),
		Slug: r.Slug,
		Name: r.Name,
		Kana: r.Kana,
	}
}

func (repo *TagTypesRepository) Create(ctx context.Context, slug, name, kana string) (domain.TagType, error) {
	id := uuid.New()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO tag_types (id, slug, name, kana) VALUES ($1, $2, $3, $4)`,
		id, slug, name, kana,
	)
	if err != nil {
		if isUniqueViolation(err, "tag_types_slug_key") {
			return domain.TagType{}, &apperr.Other{Err: fmt.Errorf("tag type slug already exists: %s", slug)}
		}
		return domain.TagType{}, apperr.Wrap(fmt.Errorf("insert tag type: %w", err))
	}

	return domain.TagType{ID: domain.TagTypeID(id), Slug: slug, Name: name, Kana: kana}, nil
}

func (repo *TagTypesRepository) FetchByIDs(ctx context.Context, ids []domain.TagTypeID) ([]domain.TagType, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uuids := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		uuids[i] = uuid.UUID(id)
	}

	var rows []tagTypeRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, slug, name, kana FROM tag_types WHERE id = ANY($1)`,
		pq.Array(uuids),
	)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch tag types: %w", err))
	}

	byID := make(map[uuid.UUID]domain.TagType, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.toDomain()
	}

	result := make([]domain.TagType, 0, len(ids))
	for _, id := range ids {
		if tt, ok := byID[uuid.UUID(id)]; ok {
			result = append(result, tt)
		}
	}
	return result, nil
}

func (repo *TagTypesRepository) FetchAll(ctx context.Context) ([]domain.TagType, error) {
	var rows []tagTypeRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, slug, name, kana FROM tag_types ORDER BY slug`)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch tag types: %w", err))
	}

	result := make([]domain.TagType, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

func (repo *TagTypesRepository) UpdateByID(ctx context.Context, id domain.TagTypeID, slug, name *string) (domain.TagType, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.TagType{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var row tagTypeRow
	if err := tx.GetContext(ctx, &row, `SELECT id, slug, name, kana FROM tag_types WHERE id = $1 FOR UPDATE`, uuid.UUID(id)); err != nil {
		if err == sql.ErrNoRows {
			return domain.TagType{}, &apperr.TagTypeNotFound{ID: uuid.UUID(id)}
		}
		return domain.TagType{}, apperr.Wrap(fmt.Errorf("fetch tag type: %w", err))
	}

	if slug != nil {
		row.Slug = *slug
	}
	if name != nil {
		row.Name = *name
	}

	_, err = tx.ExecContext(ctx, `UPDATE tag_types SET slug = $1, name = $2 WHERE id = $3`, row.Slug, row.Name, row.ID)
	if err != nil {
		if isUniqueViolation(err, "tag_types_slug_key") {
			return domain.TagType{}, &apperr.Other{Err: fmt.Errorf("tag type slug already exists: %s", row.Slug)}
		}
		return domain.TagType{}, apperr.Wrap(fmt.Errorf("update tag type: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return domain.TagType{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	return row.toDomain(), nil
}

func (repo *TagTypesRepository) DeleteByID(ctx context.Context, id domain.TagTypeID) (domain.DeleteResult, error) {
	var inUse bool
	err := repo.db.GetContext(ctx, &inUse,
		`SELECT EXISTS(SELECT 1 FROM media_tags WHERE tag_type_id = $1)`, uuid.UUID(id),
	)
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("check tag type usage: %w", err))
	}
	if inUse {
		return domain.DeleteResult{}, &apperr.TagTypeInUse{ID: uuid.UUID(id)}
	}

	result, err := repo.db.ExecContext(ctx, `DELETE FROM tag_types WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("delete tag type: %w", err))
	}

	rows, _ := result.RowsAffected()
	return domain.DeleteResult{Deleted: int(rows), Found: rows > 0}, nil
}
