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

// ExternalServicesRepository implements ports.ExternalServicesRepository
// over Postgres.
type ExternalServicesRepository struct {
	db *sqlx.DB
}

// NewExternalServicesRepository wires a Postgres-backed ExternalServicesRepository.
func NewExternalServicesRepository(db *sqlx.DB) *ExternalServicesRepository {
	return &ExternalServicesRepository{db: db}
}

type externalServiceRow struct {
	ID         uuid.UUID      `db:"id"`
	Slug       string         `db:"slug"`
	Kind       string         `db:"kind"`
	Name       string         `db:"name"`
	BaseURL    sql.NullString `db:"base_url"`
	URLPattern sql.NullString `db:"url_pattern"`
}

func (r externalServiceRow) toDomain() domain.ExternalService {
	svc := domain.ExternalService{
		ID:   domain.ExternalServiceID(r.ID),
		Slug: r.Slug,
		Kind: r.Kind,
		Name: r.Name,
	}
	if r.BaseURL.Valid {
		svc.BaseURL = &r.BaseURL.String
	}
	if r.URLPattern.Valid {
		svc.URLPattern = &r.URLPattern.String
	}
	return svc
}

func (repo *ExternalServicesRepository) Create(ctx context.Context, slug, kind, name string, baseURL, urlPattern *string) (domain.ExternalService, error) {
	id := uuid.New()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO external_services (id, slug, kind, name, base_url, url_pattern) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, slug, kind, name, nullableString(baseURL), nullableString(urlPattern),
	)
	if err != nil {
		if isUniqueViolation(err, "external_services_slug_key") {
			return domain.ExternalService{}, &apperr.ExternalServiceSlugDuplicate{Slug: slug}
		}
		return domain.ExternalService{}, apperr.Wrap(fmt.Errorf("insert external service: %w", err))
	}

	return domain.ExternalService{
		ID: domain.ExternalServiceID(id), Slug: slug, Kind: kind, Name: name,
		BaseURL: baseURL, URLPattern: urlPattern,
	}, nil
}

func (repo *ExternalServicesRepository) FetchByIDs(ctx context.Context, ids []domain.ExternalServiceID) ([]domain.ExternalService, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uuids := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		uuids[i] = uuid.UUID(id)
	}

	var rows []externalServiceRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, slug, kind, name, base_url, url_pattern FROM external_services WHERE id = ANY($1)`,
		pq.Array(uuids),
	)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch external services: %w", err))
	}

	byID := make(map[uuid.UUID]domain.ExternalService, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.toDomain()
	}

	result := make([]domain.ExternalService, 0, len(ids))
	for _, id := range ids {
		if svc, ok := byID[uuid.UUID(id)]; ok {
			result = append(result, svc)
		}
	}
	return result, nil
}

func (repo *ExternalServicesRepository) FetchAll(ctx context.Context) ([]domain.ExternalService, error) {
	var rows []externalServiceRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, slug, kind, name, base_url, url_pattern FROM external_services ORDER BY slug`)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("fetch external services: %w", err))
	}

	result := make([]domain.ExternalService, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

func (repo *ExternalServicesRepository) UpdateByID(ctx context.Context, id domain.ExternalServiceID, slug, kind, name, baseURL, urlPattern *string) (domain.ExternalService, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.ExternalService{}, apperr.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var row externalServiceRow
	err = tx.GetContext(ctx, &row,
		`SELECT id, slug, kind, name, base_url, url_pattern FROM external_services WHERE id = $1 FOR UPDATE`,
		uuid.UUID(id),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ExternalService{}, &apperr.ExternalServiceNotFound{ID: uuid.UUID(id)}
		}
		return domain.ExternalService{}, apperr.Wrap(fmt.Errorf("fetch external service: %w", err))
	}

	current := row.toDomain()
	if slug != nil {
		current.Slug = *slug
	}
	if kind != nil {
		current.Kind = *kind
	}
	if name != nil {
		current.Name = *name
	}
	if baseURL != nil {
		current.BaseURL = baseURL
	}
	if urlPattern != nil {
		current.URLPattern = urlPattern
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE external_services SET slug = $1, kind = $2, name = $3, base_url = $4, url_pattern = $5 WHERE id = $6`,
		current.Slug, current.Kind, current.Name, nullableString(current.BaseURL), nullableString(current.URLPattern), uuid.UUID(id),
	)
	if err != nil {
		if isUniqueViolation(err, "external_services_slug_key") {
			return domain.ExternalService{}, &apperr.ExternalServiceSlugDuplicate{Slug: current.Slug}
		}
		return domain.ExternalService{}, apperr.Wrap(fmt.Errorf("update external service: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return domain.ExternalService{}, apperr.Wrap(fmt.Errorf("commit transaction: %w", err))
	}

	return current, nil
}

func (repo *ExternalServicesRepository) DeleteByID(ctx context.Context, id domain.ExternalServiceID) (domain.DeleteResult, error) {
	result, err := repo.db.ExecContext(ctx, `DELETE FROM external_services WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		if isForeignKeyViolation(err, "") {
			return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("external service %s still has sources: %w", id, err))
		}
		return domain.DeleteResult{}, apperr.Wrap(fmt.Errorf("delete external service: %w", err))
	}

	rows, _ := result.RowsAffected()
	return domain.DeleteResult{Deleted: int(rows), Found: rows > 0}, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
