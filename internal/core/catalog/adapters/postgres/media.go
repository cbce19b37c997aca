package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

// MediaRepository implements ports.MediaRepository over Postgres. It
// delegates tag-tree hydration to a TagsRepository so the closure-table
// traversal logic lives in exactly one place, and reuses that repository's
// validator.Validate instance for its own param-struct checks.
type MediaRepository struct {
	db   *sqlx.DB
	tags *TagsRepository
}

// NewMediaRepository wires a Postgres-backed MediaRepository.
func NewMediaRepository(db *sqlx.DB, tags *TagsRepository) *MediaRepository {
	return &MediaRepository{db: db, tags: tags}
}

type mediumRow struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r mediumRow) toDomain() domain.Medium {
	return domain.Medium{ID: domain.MediumID(r.ID), CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (repo *MediaRepository) hydrate(ctx context.Context, medium domain.Medium, hydration ports.MediaHydration) (domain.Medium, error) {
	if hydration.Sources {
		sources, err := repo.loadSources(ctx, medium.ID)
		if err != nil {
			return domain.Medium{}, err
		}
		medium.Sources = sources
	}

	if hydration.Replicas {
		replicas, err := repo.loadReplicas(ctx, medium.ID)
		if err != nil {
			return domain.Medium{}, err
		}
		medium.Replicas = replicas
	}

	if hydration.TagDepth != nil {
		groups, err := repo.loadTagGroups(ctx, medium.ID, *hydration.TagDepth)
		if err != nil {
			return domain.Medium{}, err
		}
		medium.Tags = groups
	}

	return medium, nil
}

func (repo *MediaRepository) loadSources(ctx context.Context, id domain.MediumID) ([]domain.Source, error) {
	var sourceIDs []uuid.UUID
	err := repo.db.SelectContext(ctx, &sourceIDs, `SELECT source_id FROM media_sources WHERE medium_id = $1`, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("load source ids: %w", err)
	}
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	sourcesRepo := &SourcesRepository{db: repo.db}
	domainIDs := make([]domain.SourceID, len(sourceIDs))
	for i, sid := range sourceIDs {
		domainIDs[i] = domain.SourceID(sid)
	}
	return sourcesRepo.FetchByIDs(ctx, domainIDs)
}

func (repo *MediaRepository) loadReplicas(ctx context.Context, id domain.MediumID) ([]domain.Replica, error) {
	replicasRepo := &ReplicasRepository{db: repo.db}

	var replicaIDs []uuid.UUID
	err := repo.db.SelectContext(ctx, &replicaIDs,
		`SELECT id FROM replicas WHERE medium_id = $1 ORDER BY display_order ASC`, uuid.UUID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("load replica ids: %w", err)
	}
	if len(replicaIDs) == 0 {
		return nil, nil
	}

	domainIDs := make([]domain.ReplicaID, len(replicaIDs))
	for i, rid := range replicaIDs {
		domainIDs[i] = domain.ReplicaID(rid)
	}
	replicas, err := replicasRepo.FetchByIDs(ctx, domainIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.Replica, len(replicas))
	for _, r := range replicas {
		byID[uuid.UUID(r.ID)] = r
	}
	ordered := make([]domain.Replica, 0, len(replicaIDs))
	for _, rid := range replicaIDs {
		if r, ok := byID[rid]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}

// loadTagGroups hydrates a medium's tag attachments, grouped by TagType in
// the order each type was first attached.
func (repo *MediaRepository) loadTagGroups(ctx context.Context, id domain.MediumID, depth domain.TagDepth) ([]domain.TagTypeGroup, error) {
	var rows []struct {
		TagID     uuid.UUID `db:"tag_id"`
		TagTypeID uuid.UUID `db:"tag_type_id"`
	}
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT tag_id, tag_type_id FROM media_tags WHERE medium_id = $1 ORDER BY attached_at ASC`,
		uuid.UUID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("load tag attachments: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	tagTypesRepo := &TagTypesRepository{db: repo.db}

	typeOrder := []uuid.UUID{}
	tagsByType := map[uuid.UUID][]uuid.UUID{}
	for _, row := range rows {
		if _, ok := tagsByType[row.TagTypeID]; !ok {
			typeOrder = append(typeOrder, row.TagTypeID)
		}
		tagsByType[row.TagTypeID] = append(tagsByType[row.TagTypeID], row.TagID)
	}

	groups := make([]domain.TagTypeGroup, 0, len(typeOrder))
	for _, typeID := range typeOrder {
		tagTypes, err := tagTypesRepo.FetchByIDs(ctx, []domain.TagTypeID{domain.TagTypeID(typeID)})
		if err != nil {
			return nil, err
		}
		if len(tagTypes) == 0 {
			continue
		}

		tagIDs := make([]domain.TagID, len(tagsByType[typeID]))
		for i, tid := range tagsByType[typeID] {
			tagIDs[i] = domain.TagID(tid)
		}
		tags, err := repo.tags.FetchByIDs(ctx, tagIDs, depth)
		if err != nil {
			return nil, apperr.Wrap(err)
		}

		groups = append(groups, domain.TagTypeGroup{TagType: tagTypes[0], Tags: tags})
	}

	return groups, nil
}

func (repo *MediaRepository) Create(ctx context.Context, params ports.MediaCreateParams) (domain.Medium, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	id := uuid.New()
	now := time.Now().UTC()
	createdAt := now
	if params.CreatedAt != nil {
		createdAt = *params.CreatedAt
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO media (id, created_at, updated_at) VALUES ($1, $2, $3)`, id, createdAt, now)
	if err != nil {
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("insert medium: %w", err))
	}

	for _, sourceID := range params.SourceIDs {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM sources WHERE id = $1)`, uuid.UUID(sourceID)); err != nil {
			return domain.Medium{}, apperr.Wrap(fmt.Errorf("check source exists: %w", err))
		}
		if !exists {
			return domain.Medium{}, &apperr.SourceNotFound{ID: uuid.UUID(sourceID)}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO media_sources (medium_id, source_id) VALUES ($1, $2)`, id, uuid.UUID(sourceID)); err != nil {
			return domain.Medium{}, apperr.Wrap(fmt.Errorf("attach source: %w", err))
		}
	}

	for _, attachment := range params.TagAttachments {
		if err := repo.insertTagAttachment(ctx, tx, id, attachment); err != nil {
			return domain.Medium{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	hydration := ports.MediaHydration{Sources: params.Sources, TagDepth: params.TagDepth}
	medium, err := repo.hydrate(ctx, domain.Medium{ID: domain.MediumID(id), CreatedAt: createdAt, UpdatedAt: now}, hydration)
	if err != nil {
		return domain.Medium{}, apperr.Wrap(err)
	}
	return medium, nil
}

func (repo *MediaRepository) insertTagAttachment(ctx context.Context, tx *sqlx.Tx, mediumID uuid.UUID, attachment ports.TagAttachment) error {
	var tagExists, typeExists bool
	if err := tx.GetContext(ctx, &tagExists, `SELECT EXISTS(SELECT 1 FROM tags WHERE id = $1)`, uuid.UUID(attachment.TagID)); err != nil {
		return apperr.Wrap(fmt.Errorf("check tag exists: %w", err))
	}
	if !tagExists {
		return &apperr.TagNotFound{ID: uuid.UUID(attachment.TagID)}
	}
	if err := tx.GetContext(ctx, &typeExists, `SELECT EXISTS(SELECT 1 FROM tag_types WHERE id = $1)`, uuid.UUID(attachment.TagTypeID)); err != nil {
		return apperr.Wrap(fmt.Errorf("check tag type exists: %w", err))
	}
	if !typeExists {
		return &apperr.TagTypeNotFound{ID: uuid.UUID(attachment.TagTypeID)}
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO media_tags (medium_id, tag_id, tag_type_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		mediumID, uuid.UUID(attachment.TagID), uuid.UUID(attachment.TagTypeID),
	)
	if err != nil {
		return apperr.Wrap(fmt.Errorf("attach tag: %w", err))
	}
	return nil
}

func (repo *MediaRepository) FetchByIDs(ctx context.Context, ids []domain.MediumID, hydration ports.MediaHydration) ([]domain.Medium, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uuids := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		uuids[i] = uuid.UUID(id)
	}

	var rows []mediumRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, created_at, updated_at FROM media WHERE id = ANY($1)`, pq.Array(uuids))
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch media: %w", err))
	}

	byID := make(map[uuid.UUID]mediumRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	result := make([]domain.Medium, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[uuid.UUID(id)]
		if !ok {
			continue
		}
		medium, err := repo.hydrate(ctx, row.toDomain(), hydration)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		result = append(result, medium)
	}
	return result, nil
}

func (repo *MediaRepository) fetchAllWithExtraClause(ctx context.Context, extraClause string, extraArgs []interface{}, params ports.MediaFetchAllParams) ([]domain.Medium, error) {
	if err := repo.tags.validate.Struct(params); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("invalid media listing params: %w", err))
	}

	clauses := []string{}
	args := append([]interface{}{}, extraArgs...)
	argN := len(args) + 1

	if extraClause != "" {
		clauses = append(clauses, extraClause)
	}

	op, asc := cursorComparison(params.Order, params.Direction)
	if params.Cursor != nil {
		clauses = append(clauses, fmt.Sprintf("(created_at, id) %s ($%d, $%d)", op, argN, argN+1))
		args = append(args, params.Cursor.CreatedAt, uuid.UUID(params.Cursor.ID))
		argN += 2
	}

	query := `SELECT id, created_at, updated_at FROM media`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if asc {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}
	query += fmt.Sprintf(" LIMIT $%d", argN)
	args = append(args, ports.ClampLimit(params.Limit))

	var rows []mediumRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch media: %w", err))
	}

	result := make([]domain.Medium, 0, len(rows))
	for _, row := range rows {
		medium, err := repo.hydrate(ctx, row.toDomain(), params.Hydration)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		result = append(result, medium)
	}
	if params.Direction == domain.DirectionBackward {
		reverseMedia(result)
	}
	return result, nil
}

// reverseMedia reverses rows in place. Used to undo the inverted ORDER BY a
// Backward cursor query needs, restoring the caller's requested order.
func reverseMedia(media []domain.Medium) {
	for i, j := 0, len(media)-1; i < j; i, j = i+1, j-1 {
		media[i], media[j] = media[j], media[i]
	}
}

func (repo *MediaRepository) FetchAll(ctx context.Context, params ports.MediaFetchAllParams) ([]domain.Medium, error) {
	return repo.fetchAllWithExtraClause(ctx, "", nil, params)
}

func (repo *MediaRepository) FetchBySourceIDs(ctx context.Context, sourceIDs []domain.SourceID, params ports.MediaFetchAllParams) ([]domain.Medium, error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}
	uuids := make([]uuid.UUID, len(sourceIDs))
	for i, id := range sourceIDs {
		uuids[i] = uuid.UUID(id)
	}
	clause := "id IN (SELECT medium_id FROM media_sources WHERE source_id = ANY($1))"
	return repo.fetchAllWithExtraClause(ctx, clause, []interface{}{pq.Array(uuids)}, params)
}

func (repo *MediaRepository) FetchByTagIDs(ctx context.Context, attachments []ports.TagAttachment, params ports.MediaFetchAllParams) ([]domain.Medium, error) {
	if len(attachments) == 0 {
		return nil, nil
	}

	tagIDs := make(pq.StringArray, len(attachments))
	typeIDs := make(pq.StringArray, len(attachments))
	for i, a := range attachments {
		tagIDs[i] = uuid.UUID(a.TagID).String()
		typeIDs[i] = uuid.UUID(a.TagTypeID).String()
	}

	clause := `id IN (
		SELECT medium_id FROM media_tags
		WHERE (tag_id, tag_type_id) IN (
			SELECT UNNEST($1::uuid[]), UNNEST($2::uuid[])
		)
	)`
	return repo.fetchAllWithExtraClause(ctx, clause, []interface{}{tagIDs, typeIDs}, params)
}

func (repo *MediaRepository) UpdateByID(ctx context.Context, id domain.MediumID, params ports.MediaUpdateParams) (domain.Medium, error) {
	if err := repo.tags.validate.Struct(params); err != nil {
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("invalid medium update params: %w", err))
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var row mediumRow
	if err := tx.GetContext(ctx, &row, `SELECT id, created_at, updated_at FROM media WHERE id = $1 FOR UPDATE`, uuid.UUID(id)); err != nil {
		if err == sql.ErrNoRows {
			return domain.Medium{}, &apperr.MediumNotFound{ID: uuid.UUID(id)}
		}
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("fetch medium: %w", err))
	}

	now := time.Now().UTC()
	createdAt := row.CreatedAt
	if params.CreatedAt != nil {
		createdAt = *params.CreatedAt
	}

	if _, err := tx.ExecContext(ctx, `UPDATE media SET created_at = $1, updated_at = $2 WHERE id = $3`, createdAt, now, uuid.UUID(id)); err != nil {
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("update medium: %w", err))
	}

	for _, sourceID := range params.AddSources {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM sources WHERE id = $1)`, uuid.UUID(sourceID)); err != nil {
			return domain.Medium{}, apperr.Wrap(fmt.Errorf("check source exists: %w", err))
		}
		if !exists {
			return domain.Medium{}, &apperr.SourceNotFound{ID: uuid.UUID(sourceID)}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO media_sources (medium_id, source_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, uuid.UUID(id), uuid.UUID(sourceID)); err != nil {
			return domain.Medium{}, apperr.Wrap(fmt.Errorf("attach source: %w", err))
		}
	}
	for _, sourceID := range params.RemoveSources {
		if _, err := tx.ExecContext(ctx, `DELETE FROM media_sources WHERE medium_id = $1 AND source_id = $2`, uuid.UUID(id), uuid.UUID(sourceID)); err != nil {
			return domain.Medium{}, apperr.Wrap(fmt.Errorf("detach source: %w", err))
		}
	}

	for _, attachment := range params.AddTags {
		if err := repo.insertTagAttachment(ctx, tx, uuid.UUID(id), attachment); err != nil {
			return domain.Medium{}, err
		}
	}
	for _, attachment := range params.RemoveTags {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM media_tags WHERE medium_id = $1 AND tag_id = $2 AND tag_type_id = $3`,
			uuid.UUID(id), uuid.UUID(attachment.TagID), uuid.UUID(attachment.TagTypeID),
		)
		if err != nil {
			return domain.Medium{}, apperr.Wrap(fmt.Errorf("detach tag: %w", err))
		}
	}

	if len(params.ReplicaOrder) > 0 {
		if err := repo.reorderReplicas(ctx, tx, id, params.ReplicaOrder); err != nil {
			return domain.Medium{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Medium{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	medium, err := repo.hydrate(ctx, domain.Medium{ID: id, CreatedAt: createdAt, UpdatedAt: now}, params.Hydration)
	if err != nil {
		return domain.Medium{}, apperr.Wrap(err)
	}
	return medium, nil
}

// reorderReplicas assigns dense display orders 1..N following newOrder,
// failing with apperr.MediumReplicasNotMatch if newOrder is not a
// permutation of the medium's current replica ids. Mirrors the two-phase (offset
// then settle) update a unique (medium_id, display_order) index requires.
func (repo *MediaRepository) reorderReplicas(ctx context.Context, tx *sqlx.Tx, mediumID domain.MediumID, newOrder []domain.ReplicaID) error {
	var currentIDs []uuid.UUID
	err := tx.SelectContext(ctx, &currentIDs, `SELECT id FROM replicas WHERE medium_id = $1 ORDER BY display_order ASC`, uuid.UUID(mediumID))
	if err != nil {
		return apperr.Wrap(fmt.Errorf("fetch current replicas: %w", err))
	}

	currentSet := make(map[uuid.UUID]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		currentSet[id] = struct{}{}
	}
	newSet := make(map[uuid.UUID]struct{}, len(newOrder))
	for _, id := range newOrder {
		newSet[uuid.UUID(id)] = struct{}{}
	}
	mismatch := len(currentSet) != len(newSet) || len(newOrder) != len(currentIDs)
	if !mismatch {
		for id := range currentSet {
			if _, ok := newSet[id]; !ok {
				mismatch = true
				break
			}
		}
	}
	if mismatch {
		expected := make([]uuid.UUID, len(currentIDs))
		copy(expected, currentIDs)
		actual := make([]uuid.UUID, len(newOrder))
		for i, id := range newOrder {
			actual[i] = uuid.UUID(id)
		}
		return &apperr.MediumReplicasNotMatch{MediumID: uuid.UUID(mediumID), Expected: expected, Actual: actual}
	}

	// Offset into a disjoint range first so intermediate states never
	// collide with the unique (medium_id, display_order) index.
	if _, err := tx.ExecContext(ctx, `UPDATE replicas SET display_order = display_order + $1 WHERE medium_id = $2`, len(newOrder), uuid.UUID(mediumID)); err != nil {
		return apperr.Wrap(fmt.Errorf("offset display orders: %w", err))
	}

	for i, replicaID := range newOrder {
		_, err := tx.ExecContext(ctx,
			`UPDATE replicas SET display_order = $1 WHERE id = $2`,
			i+1, uuid.UUID(replicaID),
		)
		if err != nil {
			return apperr.Wrap(fmt.Errorf("settle display order: %w", err))
		}
	}

	return nil
}

func (repo *MediaRepository) DeleteByID(ctx context.Context, id domain.MediumID) (domain.DeleteResult, error) {
	result, err := repo.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("delete medium: %w", err))
	}

	rows, _ := result.RowsAffected()
	return domain.DeleteResult{Deleted: int(rows), Found: rows > 0}, nil
}
