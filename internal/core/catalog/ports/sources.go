package ports

import (
	"context"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
)

// SourcesRepository manages third-party source references, each pointing
// at an ExternalService. Metadata identity is canonicalized per Kind before
// the uniqueness check.
type SourcesRepository interface {
	// Create fails with apperr.ExternalServiceNotFound for an unknown
	// service id and apperr.SourceAlreadyExists for a duplicate
	// (service, canonical metadata) pair.
	Create(ctx context.Context, externalServiceID domain.ExternalServiceID, metadata domain.ExternalMetadata) (domain.Source, error)

	FetchByIDs(ctx context.Context, ids []domain.SourceID) ([]domain.Source, error)

	// FetchByExternalMetadata looks up a source by its canonical identity;
	// returns (zero, false) if none exists.
	FetchByExternalMetadata(ctx context.Context, externalServiceID domain.ExternalServiceID, metadata domain.ExternalMetadata) (domain.Source, bool, error)

	UpdateByID(ctx context.Context, id domain.SourceID, externalServiceID *domain.ExternalServiceID, metadata *domain.ExternalMetadata) (domain.Source, error)

	DeleteByID(ctx context.Context, id domain.SourceID) (domain.DeleteResult, error)
}
