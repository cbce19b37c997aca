package ports

import (
	"context"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// ExternalServicesRepository is plain CRUD over external services, unique
// on slug. Deleting a service with sources still referencing it is
// rejected by the database's ON DELETE RESTRICT foreign key; the adapter
// surfaces that as apperr.Other since the repository contract has no
// dedicated "service in use" kind (the invariant is protected at the
// sources layer via ExternalServiceNotFound on create).
type ExternalServicesRepository interface {
	Create(ctx context.Context, slug, kind, name string, baseURL, urlPattern *string) (domain.ExternalService, error)
	FetchByIDs(ctx context.Context, ids []domain.ExternalServiceID) ([]domain.ExternalService, error)
	FetchAll(ctx context.Context) ([]domain.ExternalService, error)
	UpdateByID(ctx context.Context, id domain.ExternalServiceID, slug, kind, name, baseURL, urlPattern *string) (domain.ExternalService, error)
	DeleteByID(ctx context.Context, id domain.ExternalServiceID) (domain.DeleteResult, error)
}
