package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

// TagsRepository implements ports.TagsRepository over Postgres, maintaining
// the tag forest via the tag_ancestors closure table.
type TagsRepository struct {
	db       *sqlx.DB
	validate *validator.Validate
}

// NewTagsRepository wires a Postgres-backed TagsRepository.
func NewTagsRepository(db *sqlx.DB) *TagsRepository {
	return &TagsRepository{db: db, validate: validator.New()}
}

type tagBaseRow struct {
	ID        uuid.UUID      `db:"id"`
	Name      string         `db:"name"`
	Kana      string         `db:"kana"`
	Aliases   pq.StringArray `db:"aliases"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r tagBaseRow) toDomain() domain.Tag {
	return domain.Tag{
		ID:        domain.TagID(r.ID),
		Name:      r.Name,
		Kana:      r.Kana,
		Aliases:   []string(r.Aliases),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *TagsRepository) fetchBaseRow(ctx context.Context, q sqlx.QueryerContext, id domain.TagID) (tagBaseRow, error) {
	var row tagBaseRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT id, name, kana, aliases, created_at, updated_at FROM tags WHERE id = $1`,
		uuid.UUID(id),
	)
	return row, err
}

// loadParentChain hydrates up to maxDepth ancestor generations as a linked
// Parent chain, nil if maxDepth is 0 or id is a root.
func (repo *TagsRepository) loadParentChain(ctx context.Context, id domain.TagID, maxDepth uint32) (*domain.Tag, error) {
	if maxDepth == 0 {
		return nil, nil
	}

	var parentID uuid.UUID
	err := repo.db.GetContext(ctx, &parentID,
		`SELECT ancestor_id FROM tag_ancestors WHERE descendant_id = $1 AND distance = 1`,
		uuid.UUID(id),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load parent edge: %w", err)
	}

	row, err := repo.fetchBaseRow(ctx, repo.db, domain.TagID(parentID))
	if err != nil {
		return nil, fmt.Errorf("load parent row: %w", err)
	}
	parent := row.toDomain()

	grandparent, err := repo.loadParentChain(ctx, parent.ID, maxDepth-1)
	if err != nil {
		return nil, err
	}
	parent.Parent = grandparent

	return &parent, nil
}

// loadChildrenTree hydrates up to maxDepth descendant generations.
func (repo *TagsRepository) loadChildrenTree(ctx context.Context, id domain.TagID, maxDepth uint32) ([]domain.Tag, error) {
	if maxDepth == 0 {
		return nil, nil
	}

	var childIDs []uuid.UUID
	err := repo.db.SelectContext(ctx, &childIDs,
		`SELECT descendant_id FROM tag_ancestors WHERE ancestor_id = $1 AND distance = 1`,
		uuid.UUID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("load child edges: %w", err)
	}
	if len(childIDs) == 0 {
		return nil, nil
	}

	children := make([]domain.Tag, 0, len(childIDs))
	for _, childID := range childIDs {
		row, err := repo.fetchBaseRow(ctx, repo.db, domain.TagID(childID))
		if err != nil {
			return nil, fmt.Errorf("load child row: %w", err)
		}
		child := row.toDomain()

		grandchildren, err := repo.loadChildrenTree(ctx, child.ID, maxDepth-1)
		if err != nil {
			return nil, err
		}
		child.Children = grandchildren
		children = append(children, child)
	}

	return children, nil
}

func (repo *TagsRepository) hydrate(ctx context.Context, base domain.Tag, depth domain.TagDepth) (domain.Tag, error) {
	parent, err := repo.loadParentChain(ctx, base.ID, depth.Parent)
	if err != nil {
		return domain.Tag{}, err
	}
	children, err := repo.loadChildrenTree(ctx, base.ID, depth.Child)
	if err != nil {
		return domain.Tag{}, err
	}
	base.Parent = parent
	base.Children = children
	return base, nil
}

func (repo *TagsRepository) Create(ctx context.Context, name, kana string, aliases []string, parent *domain.TagID, depth domain.TagDepth) (domain.Tag, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	id := uuid.New()
	now := time.Now().UTC()
	sortedAliases := normalizeAliases(aliases)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tags (id, name, kana, aliases, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		id, name, kana, pq.Array(sortedAliases), now,
	)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("insert tag: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO tag_ancestors (ancestor_id, descendant_id, distance) VALUES ($1, $1, 0)`, id); err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("insert self closure row: %w", err))
	}

	if parent != nil {
		var parentExists bool
		if err := tx.GetContext(ctx, &parentExists, `SELECT EXISTS(SELECT 1 FROM tags WHERE id = $1)`, uuid.UUID(*parent)); err != nil {
			return domain.Tag{}, apperr.Wrap(fmt.Errorf("check parent exists: %w", err))
		}
		if !parentExists {
			return domain.Tag{}, &apperr.TagNotFound{ID: uuid.UUID(*parent)}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO tag_ancestors (ancestor_id, descendant_id, distance)
			 SELECT ancestor_id, $2, distance + 1 FROM tag_ancestors WHERE descendant_id = $1`,
			uuid.UUID(*parent), id,
		)
		if err != nil {
			return domain.Tag{}, apperr.Wrap(fmt.Errorf("insert ancestor closure rows: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	base := domain.Tag{ID: domain.TagID(id), Name: name, Kana: kana, Aliases: sortedAliases, CreatedAt: now, UpdatedAt: now}
	hydrated, err := repo.hydrate(ctx, base, depth)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(err)
	}
	return hydrated, nil
}

func (repo *TagsRepository) FetchAll(ctx context.Context, params ports.TagFetchAllParams) ([]domain.Tag, error) {
	if err := repo.validate.Struct(params); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("invalid tag listing params: %w", err))
	}

	clauses := []string{}
	args := []interface{}{}
	argN := 1

	if params.RootOnly {
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM tag_ancestors pa WHERE pa.descendant_id = tags.id AND pa.distance = 1)"))
		_ = argN
	}

	op, asc := cursorComparison(params.Order, params.Direction)
	if params.Cursor != nil {
		clauses = append(clauses, fmt.Sprintf("(kana, id) %s ($%d, $%d)", op, argN, argN+1))
		args = append(args, params.Cursor.Kana, uuid.UUID(params.Cursor.ID))
		argN += 2
	}

	query := `SELECT id, name, kana, aliases, created_at, updated_at FROM tags`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if asc {
		query += " ORDER BY kana ASC, id ASC"
	} else {
		query += " ORDER BY kana DESC, id DESC"
	}
	query += fmt.Sprintf(" LIMIT $%d", argN)
	args = append(args, ports.ClampLimit(params.Limit))

	var rows []tagBaseRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch tags: %w", err))
	}

	result := make([]domain.Tag, 0, len(rows))
	for _, row := range rows {
		hydrated, err := repo.hydrate(ctx, row.toDomain(), params.Depth)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		result = append(result, hydrated)
	}
	if params.Direction == domain.DirectionBackward {
		reverseTags(result)
	}
	return result, nil
}

// cursorComparison returns the comparison operator and ORDER BY direction
// for a keyset-paginated query. Backward queries must run in the reverse of
// the requested order so LIMIT picks the rows nearest the cursor rather than
// the globally first page; callers are responsible for reversing the
// resulting rows back into the requested order before returning them.
func cursorComparison(order domain.Order, direction domain.Direction) (op string, queryAscending bool) {
	orderAscending := order != domain.OrderDescending
	forward := direction != domain.DirectionBackward

	switch {
	case orderAscending && forward:
		return ">", true
	case orderAscending && !forward:
		return "<", false
	case !orderAscending && forward:
		return "<", false
	default:
		return ">", true
	}
}

// reverseTags reverses rows in place. Used to undo the inverted ORDER BY a
// Backward cursor query needs, restoring the caller's requested order.
func reverseTags(tags []domain.Tag) {
	for i, j := 0, len(tags)-1; i < j; i, j = i+1, j-1 {
		tags[i], tags[j] = tags[j], tags[i]
	}
}

func (repo *TagsRepository) FetchByIDs(ctx context.Context, ids []domain.TagID, depth domain.TagDepth) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uuids := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		uuids[i] = uuid.UUID(id)
	}

	var rows []tagBaseRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, kana, aliases, created_at, updated_at FROM tags WHERE id = ANY($1)`, pq.Array(uuids))
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch tags: %w", err))
	}

	byID := make(map[uuid.UUID]tagBaseRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	result := make([]domain.Tag, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[uuid.UUID(id)]
		if !ok {
			continue
		}
		hydrated, err := repo.hydrate(ctx, row.toDomain(), depth)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		result = append(result, hydrated)
	}
	return result, nil
}

func (repo *TagsRepository) FetchByNameOrAliasLike(ctx context.Context, needle string, depth domain.TagDepth) ([]domain.Tag, error) {
	pattern := "%" + strings.NewReplacer("%", `\%`, "_", `\_`).Replace(needle) + "%"

	var rows []tagBaseRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, name, kana, aliases, created_at, updated_at FROM tags
		 WHERE name LIKE $1 OR kana LIKE $1 OR EXISTS (SELECT 1 FROM unnest(aliases) a WHERE a LIKE $1)
		 ORDER BY kana ASC, id ASC`,
		pattern,
	)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch tags by name/alias: %w", err))
	}

	result := make([]domain.Tag, 0, len(rows))
	for _, row := range rows {
		hydrated, err := repo.hydrate(ctx, row.toDomain(), depth)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		result = append(result, hydrated)
	}
	return result, nil
}

func (repo *TagsRepository) UpdateByID(ctx context.Context, id domain.TagID, params ports.TagUpdateParams) (domain.Tag, error) {
	if err := repo.validate.Struct(params); err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("invalid tag update params: %w", err))
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	row, err := repo.fetchBaseRow(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tag{}, &apperr.TagNotFound{ID: uuid.UUID(id)}
		}
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("fetch tag: %w", err))
	}
	current := row.toDomain()

	if params.Name != nil {
		current.Name = *params.Name
	}
	if params.Kana != nil {
		current.Kana = *params.Kana
	}

	aliasSet := make(map[string]struct{}, len(current.Aliases))
	for _, a := range current.Aliases {
		aliasSet[a] = struct{}{}
	}
	for _, a := range params.AddAliases {
		aliasSet[a] = struct{}{}
	}
	for _, a := range params.RemoveAliases {
		delete(aliasSet, a)
	}
	newAliases := make([]string, 0, len(aliasSet))
	for a := range aliasSet {
		newAliases = append(newAliases, a)
	}
	current.Aliases = normalizeAliases(newAliases)
	current.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE tags SET name = $1, kana = $2, aliases = $3, updated_at = $4 WHERE id = $5`,
		current.Name, current.Kana, pq.Array(current.Aliases), current.UpdatedAt, uuid.UUID(id),
	)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("update tag: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	hydrated, err := repo.hydrate(ctx, current, params.Depth)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(err)
	}
	return hydrated, nil
}

// moveSubtree implements the closure-table reparenting algorithm: detach
// id's subtree from its current ancestor chain, then (if attach is true)
// reattach it under newParent.
func (repo *TagsRepository) moveSubtree(ctx context.Context, tx *sqlx.Tx, id, newParent domain.TagID, attach bool) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM tag_ancestors
		 WHERE descendant_id IN (SELECT descendant_id FROM tag_ancestors WHERE ancestor_id = $1)
		   AND ancestor_id IN (SELECT ancestor_id FROM tag_ancestors WHERE descendant_id = $1 AND ancestor_id <> descendant_id)`,
		uuid.UUID(id),
	)
	if err != nil {
		return fmt.Errorf("detach subtree: %w", err)
	}

	if !attach {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tag_ancestors (ancestor_id, descendant_id, distance)
		 SELECT supertree.ancestor_id, subtree.descendant_id, supertree.distance + subtree.distance + 1
		 FROM tag_ancestors AS supertree
		 CROSS JOIN tag_ancestors AS subtree
		 WHERE supertree.descendant_id = $1 AND subtree.ancestor_id = $2`,
		uuid.UUID(newParent), uuid.UUID(id),
	)
	if err != nil {
		return fmt.Errorf("attach subtree: %w", err)
	}
	return nil
}

func (repo *TagsRepository) AttachByID(ctx context.Context, id, newParent domain.TagID, depth domain.TagDepth) (domain.Tag, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	row, err := repo.fetchBaseRow(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tag{}, &apperr.TagNotFound{ID: uuid.UUID(id)}
		}
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("fetch tag: %w", err))
	}

	var parentExists bool
	if err := tx.GetContext(ctx, &parentExists, `SELECT EXISTS(SELECT 1 FROM tags WHERE id = $1)`, uuid.UUID(newParent)); err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("check new parent exists: %w", err))
	}
	if !parentExists {
		return domain.Tag{}, &apperr.TagNotFound{ID: uuid.UUID(newParent)}
	}

	var isCycle bool
	err = tx.GetContext(ctx, &isCycle,
		`SELECT EXISTS(SELECT 1 FROM tag_ancestors WHERE ancestor_id = $1 AND descendant_id = $2)`,
		uuid.UUID(id), uuid.UUID(newParent),
	)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("check cycle: %w", err))
	}
	if isCycle {
		return domain.Tag{}, &apperr.TagAttachingToDescendant{ID: uuid.UUID(id), ParentID: uuid.UUID(newParent)}
	}

	if err := repo.moveSubtree(ctx, tx, id, newParent, true); err != nil {
		return domain.Tag{}, apperr.Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	hydrated, err := repo.hydrate(ctx, row.toDomain(), depth)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(err)
	}
	return hydrated, nil
}

func (repo *TagsRepository) DetachByID(ctx context.Context, id domain.TagID, depth domain.TagDepth) (domain.Tag, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	row, err := repo.fetchBaseRow(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tag{}, &apperr.TagNotFound{ID: uuid.UUID(id)}
		}
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("fetch tag: %w", err))
	}

	if err := repo.moveSubtree(ctx, tx, id, domain.TagID{}, false); err != nil {
		return domain.Tag{}, apperr.Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Tag{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	hydrated, err := repo.hydrate(ctx, row.toDomain(), depth)
	if err != nil {
		return domain.Tag{}, apperr.Wrap(err)
	}
	return hydrated, nil
}

func (repo *TagsRepository) DeleteByID(ctx context.Context, id domain.TagID, recursive bool) (domain.DeleteResult, error) {
	var hasChildren bool
	err := repo.db.GetContext(ctx, &hasChildren,
		`SELECT EXISTS(SELECT 1 FROM tag_ancestors WHERE ancestor_id = $1 AND distance = 1)`,
		uuid.UUID(id),
	)
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("check children: %w", err))
	}
	if hasChildren && !recursive {
		return domain.DeleteResult{}, &apperr.TagChildrenExist{ID: uuid.UUID(id)}
	}

	var result sql.Result
	if hasChildren && recursive {
		result, err = repo.db.ExecContext(ctx,
			`DELETE FROM tags WHERE id IN (SELECT descendant_id FROM tag_ancestors WHERE ancestor_id = $1)`,
			uuid.UUID(id),
		)
	} else {
		result, err = repo.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, uuid.UUID(id))
	}
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("delete tag: %w", err))
	}

	rows, _ := result.RowsAffected()
	return domain.DeleteResult{Deleted: int(rows), Found: rows > 0}, nil
}

func normalizeAliases(aliases []string) []string {
	set := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		if a == "" {
			continue
		}
		set[a] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
