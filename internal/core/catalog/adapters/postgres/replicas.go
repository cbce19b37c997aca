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
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

// ReplicasRepository implements ports.ReplicasRepository over Postgres.
type ReplicasRepository struct {
	db *sqlx.DB
}

// NewReplicasRepository wires a Postgres-backed ReplicasRepository.
func NewReplicasRepository(db *sqlx.DB) *ReplicasRepository {
	return &ReplicasRepository{db: db}
}

type replicaRow struct {
	ID           uuid.UUID `db:"id"`
	MediumID     uuid.UUID `db:"medium_id"`
	DisplayOrder int       `db:"display_order"`
	OriginalURL  string    `db:"original_url"`
	MimeType     string    `db:"mime_type"`
	Width        int       `db:"width"`
	Height       int       `db:"height"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r replicaRow) toDomain() domain.Replica {
	return domain.Replica{
		ID:           domain.ReplicaID(r.ID),
		MediumID:     domain.MediumID(r.MediumID),
		DisplayOrder: uint32(r.DisplayOrder),
		OriginalURL:  r.OriginalURL,
		MimeType:     r.MimeType,
		Size:         domain.Size{Width: uint32(r.Width), Height: uint32(r.Height)},
		Status:       domain.ReplicaStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (repo *ReplicasRepository) attachThumbnail(ctx context.Context, replica *domain.Replica) error {
	var row struct {
		ID     uuid.UUID `db:"id"`
		Width  int       `db:"width"`
		Height int       `db:"height"`
	}
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, width, height FROM thumbnails WHERE replica_id = $1`, uuid.UUID(replica.ID),
	)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch thumbnail: %w", err)
	}
	replica.Thumbnail = &domain.Thumbnail{
		ID:        domain.ThumbnailID(row.ID),
		ReplicaID: replica.ID,
		Size:      domain.Size{Width: uint32(row.Width), Height: uint32(row.Height)},
	}
	return nil
}

func (repo *ReplicasRepository) Create(ctx context.Context, mediumID domain.MediumID, thumbnail *ports.ImageData, originalURL string, original ports.ImageData) (domain.Replica, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var mediumExists bool
	if err := tx.GetContext(ctx, &mediumExists, `SELECT EXISTS(SELECT 1 FROM media WHERE id = $1)`, uuid.UUID(mediumID)); err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("check medium exists: %w", err))
	}
	if !mediumExists {
		return domain.Replica{}, &apperr.MediumNotFound{ID: uuid.UUID(mediumID)}
	}

	var nextOrder int
	if err := tx.GetContext(ctx, &nextOrder, `SELECT COALESCE(MAX(display_order), 0) + 1 FROM replicas WHERE medium_id = $1`, uuid.UUID(mediumID)); err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("compute display order: %w", err))
	}

	id := uuid.New()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO replicas (id, medium_id, display_order, original_url, mime_type, width, height, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		id, uuid.UUID(mediumID), nextOrder, originalURL, original.MimeType, original.Size.Width, original.Size.Height,
		domain.ReplicaStatusReady, now,
	)
	if err != nil {
		if isUniqueViolation(err, "replicas_original_url_key") {
			return domain.Replica{}, &apperr.ReplicaOriginalUrlDuplicate{URL: originalURL}
		}
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("insert replica: %w", err))
	}

	replica := domain.Replica{
		ID: domain.ReplicaID(id), MediumID: mediumID, DisplayOrder: uint32(nextOrder),
		OriginalURL: originalURL, MimeType: original.MimeType, Size: original.Size,
		Status: domain.ReplicaStatusReady, CreatedAt: now, UpdatedAt: now,
	}

	if thumbnail != nil {
		thumbID := uuid.New()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO thumbnails (id, replica_id, data, width, height, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			thumbID, id, thumbnail.Bytes, thumbnail.Size.Width, thumbnail.Size.Height, now,
		)
		if err != nil {
			return domain.Replica{}, apperr.Wrap(fmt.Errorf("insert thumbnail: %w", err))
		}
		replica.Thumbnail = &domain.Thumbnail{
			ID: domain.ThumbnailID(thumbID), ReplicaID: replica.ID, Bytes: thumbnail.Bytes,
			Size: thumbnail.Size, CreatedAt: now, UpdatedAt: now,
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	return replica, nil
}

func (repo *ReplicasRepository) FetchByIDs(ctx context.Context, ids []domain.ReplicaID) ([]domain.Replica, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uuids := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		uuids[i] = uuid.UUID(id)
	}

	var rows []replicaRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, medium_id, display_order, original_url, mime_type, width, height, status, created_at, updated_at
		 FROM replicas WHERE id = ANY($1)`,
		pq.Array(uuids),
	)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch replicas: %w", err))
	}

	byID := make(map[uuid.UUID]domain.Replica, len(rows))
	for _, row := range rows {
		replica := row.toDomain()
		if err := repo.attachThumbnail(ctx, &replica); err != nil {
			return nil, apperr.Wrap(err)
		}
		byID[row.ID] = replica
	}

	result := make([]domain.Replica, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[uuid.UUID(id)]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

func (repo *ReplicasRepository) FetchByOriginalURL(ctx context.Context, url string) (domain.Replica, bool, error) {
	var row replicaRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, medium_id, display_order, original_url, mime_type, width, height, status, created_at, updated_at
		 FROM replicas WHERE original_url = $1`,
		url,
	)
	if err == sql.ErrNoRows {
		return domain.Replica{}, false, nil
	}
	if err != nil {
		return domain.Replica{}, false, apperr.Wrap(fmt.Errorf("fetch replica by url: %w", err))
	}

	replica := row.toDomain()
	if err := repo.attachThumbnail(ctx, &replica); err != nil {
		return domain.Replica{}, false, apperr.Wrap(err)
	}
	return replica, true, nil
}

func (repo *ReplicasRepository) FetchThumbnailByID(ctx context.Context, id domain.ReplicaID) ([]byte, error) {
	var data []byte
	err := repo.db.GetContext(ctx, &data, `SELECT data FROM thumbnails WHERE replica_id = $1`, uuid.UUID(id))
	if err == sql.ErrNoRows {
		return nil, &apperr.ThumbnailNotFound{ID: uuid.UUID(id)}
	}
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch thumbnail bytes: %w", err))
	}
	return data, nil
}

func (repo *ReplicasRepository) UpdateByID(ctx context.Context, id domain.ReplicaID, thumbnail *ports.ImageData, originalURL *string, original *ports.ImageData) (domain.Replica, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var row replicaRow
	err = tx.GetContext(ctx, &row,
		`SELECT id, medium_id, display_order, original_url, mime_type, width, height, status, created_at, updated_at
		 FROM replicas WHERE id = $1 FOR UPDATE`,
		uuid.UUID(id),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Replica{}, &apperr.ReplicaNotFound{ID: uuid.UUID(id)}
		}
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("fetch replica: %w", err))
	}
	current := row.toDomain()

	if originalURL != nil {
		current.OriginalURL = *originalURL
	}
	if original != nil {
		current.MimeType = original.MimeType
		current.Size = original.Size
	}
	current.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE replicas SET original_url = $1, mime_type = $2, width = $3, height = $4, updated_at = $5 WHERE id = $6`,
		current.OriginalURL, current.MimeType, current.Size.Width, current.Size.Height, current.UpdatedAt, uuid.UUID(id),
	)
	if err != nil {
		if isUniqueViolation(err, "replicas_original_url_key") {
			return domain.Replica{}, &apperr.ReplicaOriginalUrlDuplicate{URL: current.OriginalURL}
		}
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("update replica: %w", err))
	}

	if thumbnail != nil {
		now := current.UpdatedAt
		res, err := tx.ExecContext(ctx,
			`UPDATE thumbnails SET data = $1, width = $2, height = $3, updated_at = $4 WHERE replica_id = $5`,
			thumbnail.Bytes, thumbnail.Size.Width, thumbnail.Size.Height, now, uuid.UUID(id),
		)
		if err != nil {
			return domain.Replica{}, apperr.Wrap(fmt.Errorf("update thumbnail: %w", err))
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			thumbID := uuid.New()
			_, err = tx.ExecContext(ctx,
				`INSERT INTO thumbnails (id, replica_id, data, width, height, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
				thumbID, uuid.UUID(id), thumbnail.Bytes, thumbnail.Size.Width, thumbnail.Size.Height, now,
			)
			if err != nil {
				return domain.Replica{}, apperr.Wrap(fmt.Errorf("insert thumbnail: %w", err))
			}
		}
		current.Thumbnail = &domain.Thumbnail{
			ID: domain.ThumbnailID(uuid.New()), ReplicaID: current.ID, Bytes: thumbnail.Bytes,
			Size: thumbnail.Size, UpdatedAt: now,
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	if current.Thumbnail == nil {
		if err := repo.attachThumbnail(ctx, &current); err != nil {
			return domain.Replica{}, apperr.Wrap(err)
		}
	}

	return current, nil
}

func (repo *ReplicasRepository) DeleteByID(ctx context.Context, id domain.ReplicaID) (domain.DeleteResult, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var target struct {
		MediumID     uuid.UUID `db:"medium_id"`
		DisplayOrder int       `db:"display_order"`
	}
	err = tx.GetContext(ctx, &target, `SELECT medium_id, display_order FROM replicas WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	if err == sql.ErrNoRows {
		return domain.DeleteResult{Found: false}, nil
	}
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("fetch replica: %w", err))
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM replicas WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("delete replica: %w", err))
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE replicas SET display_order = display_order - 1 WHERE medium_id = $1 AND display_order > $2`,
		target.MediumID, target.DisplayOrder,
	)
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("compact display orders: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	rows, _ := result.RowsAffected()
	return domain.DeleteResult{Deleted: int(rows), Found: rows > 0}, nil
}
