package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// SourcesRepository implements ports.SourcesRepository over Postgres.
type SourcesRepository struct {
	db *sqlx.DB
}

// NewSourcesRepository wires a Postgres-backed SourcesRepository.
func NewSourcesRepository(db *sqlx.DB) *SourcesRepository {
	return &SourcesRepository{db: db}
}

type sourceRow struct {
	ID                uuid.UUID `db:"id"`
	ExternalServiceID uuid.UUID `db:"external_service_id"`
	ExternalMetadata  []byte    `db:"external_metadata"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r sourceRow) toDomain() (domain.Source, error) {
	var meta domain.ExternalMetadata
	if err := meta.UnmarshalJSON(r.ExternalMetadata); err != nil {
		return domain.Source{}, fmt.Errorf("decode source metadata: %w", err)
	}
	return domain.Source{
		ID:                domain.SourceID(r.ID),
		ExternalServiceID: domain.ExternalServiceID(r.ExternalServiceID),
		Metadata:          meta,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

func (repo *SourcesRepository) Create(ctx context.Context, externalServiceID domain.ExternalServiceID, metadata domain.ExternalMetadata) (domain.Source, error) {
	if err := metadata.Validate(); err != nil {
		return domain.Source{}, &apperr.SourceMetadataInvalid{Kind: metadata.Kind, Reason: err.Error()}
	}

	payload, err := metadata.MarshalJSON()
	if err != nil {
		return domain.Source{}, &apperr.SourceMetadataInvalid{Kind: metadata.Kind, Reason: err.Error()}
	}

	canonical, err := metadata.Canonical()
	if err != nil {
		return domain.Source{}, &apperr.SourceMetadataInvalid{Kind: metadata.Kind, Reason: err.Error()}
	}

	id := uuid.New()
	now := time.Now().UTC()
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO sources (id, external_service_id, external_metadata, canonical_metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, uuid.UUID(externalServiceID), payload, canonical, now,
	)
	if err != nil {
		if isForeignKeyViolation(err, "sources_external_service_id_fkey") {
			return domain.Source{}, &apperr.ExternalServiceNotFound{ID: uuid.UUID(externalServiceID)}
		}
		if isUniqueViolation(err, "sources_external_service_id_canonical_metadata_key") {
			return domain.Source{}, &apperr.SourceAlreadyExists{ExternalServiceID: uuid.UUID(externalServiceID), Metadata: canonical}
		}
		return domain.Source{}, apperr.Wrap(fmt.Errorf("insert source: %w", err))
	}

	return domain.Source{
		ID: domain.SourceID(id), ExternalServiceID: externalServiceID, Metadata: metadata,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

func (repo *SourcesRepository) FetchByIDs(ctx context.Context, ids []domain.SourceID) ([]domain.Source, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uuids := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		uuids[i] = uuid.UUID(id)
	}

	var rows []sourceRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, external_service_id, external_metadata, created_at, updated_at FROM sources WHERE id = ANY($1)`,
		pq.Array(uuids),
	)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch sources: %w", err))
	}

	byID := make(map[uuid.UUID]domain.Source, len(rows))
	for _, row := range rows {
		src, err := row.toDomain()
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		byID[row.ID] = src
	}

	result := make([]domain.Source, 0, len(ids))
	for _, id := range ids {
		if src, ok := byID[uuid.UUID(id)]; ok {
			result = append(result, src)
		}
	}
	return result, nil
}

func (repo *SourcesRepository) FetchByExternalMetadata(ctx context.Context, externalServiceID domain.ExternalServiceID, metadata domain.ExternalMetadata) (domain.Source, bool, error) {
	canonical, err := metadata.Canonical()
	if err != nil {
		return domain.Source{}, false, &apperr.SourceMetadataInvalid{Kind: metadata.Kind, Reason: err.Error()}
	}

	var row sourceRow
	err = repo.db.GetContext(ctx, &row,
		`SELECT id, external_service_id, external_metadata, created_at, updated_at
		 FROM sources WHERE external_service_id = $1 AND canonical_metadata = $2`,
		uuid.UUID(externalServiceID), canonical,
	)
	if err == sql.ErrNoRows {
		return domain.Source{}, false, nil
	}
	if err != nil {
		return domain.Source{}, false, apperr.Wrap(fmt.Errorf("fetch source by metadata: %w", err))
	}

	src, err := row.toDomain()
	if err != nil {
		return domain.Source{}, false, apperr.Wrap(err)
	}
	return src, true, nil
}

func (repo *SourcesRepository) UpdateByID(ctx context.Context, id domain.SourceID, externalServiceID *domain.ExternalServiceID, metadata *domain.ExternalMetadata) (domain.Source, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Source{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var row sourceRow
	err = tx.GetContext(ctx, &row,
		`SELECT id, external_service_id, external_metadata, created_at, updated_at FROM sources WHERE id = $1 FOR UPDATE`,
		uuid.UUID(id),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Source{}, &apperr.SourceNotFound{ID: uuid.UUID(id)}
		}
		return domain.Source{}, apperr.Wrap(fmt.Errorf("fetch source: %w", err))
	}

	current, err := row.toDomain()
	if err != nil {
		return domain.Source{}, apperr.Wrap(err)
	}

	if externalServiceID != nil {
		current.ExternalServiceID = *externalServiceID
	}
	if metadata != nil {
		if err := metadata.Validate(); err != nil {
			return domain.Source{}, &apperr.SourceMetadataInvalid{Kind: metadata.Kind, Reason: err.Error()}
		}
		current.Metadata = *metadata
	}

	payload, err := current.Metadata.MarshalJSON()
	if err != nil {
		return domain.Source{}, &apperr.SourceMetadataInvalid{Kind: current.Metadata.Kind, Reason: err.Error()}
	}
	canonical, err := current.Metadata.Canonical()
	if err != nil {
		return domain.Source{}, &apperr.SourceMetadataInvalid{Kind: current.Metadata.Kind, Reason: err.Error()}
	}

	current.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE sources SET external_service_id = $1, external_metadata = $2, canonical_metadata = $3, updated_at = $4 WHERE id = $5`,
		uuid.UUID(current.ExternalServiceID), payload, canonical, current.UpdatedAt, uuid.UUID(id),
	)
	if err != nil {
		if isForeignKeyViolation(err, "sources_external_service_id_fkey") {
			return domain.Source{}, &apperr.ExternalServiceNotFound{ID: uuid.UUID(current.ExternalServiceID)}
		}
		if isUniqueViolation(err, "sources_external_service_id_canonical_metadata_key") {
			return domain.Source{}, &apperr.SourceAlreadyExists{ExternalServiceID: uuid.UUID(current.ExternalServiceID), Metadata: canonical}
		}
		return domain.Source{}, apperr.Wrap(fmt.Errorf("update source: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return domain.Source{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	return current, nil
}

func (repo *SourcesRepository) DeleteByID(ctx context.Context, id domain.SourceID) (domain.DeleteResult, error) {
	result, err := repo.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("delete source: %w", err))
	}

	rows, _ := result.RowsAffected()
	return domain.DeleteResult{Deleted: int(rows), Found: rows > 0}, nil
}
