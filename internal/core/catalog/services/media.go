package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"

	"github.com/google/uuid"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

// ObjectsRegistry resolves a blob store by the URL scheme it serves,
// letting MediaService address replicas on whichever backend (filesystem,
// S3/MinIO) a given deployment has wired in for that scheme.
type ObjectsRegistry struct {
	byScheme map[string]ports.ObjectsRepository
}

// NewObjectsRegistry indexes repos by their declared Scheme().
func NewObjectsRegistry(repos ...ports.ObjectsRepository) *ObjectsRegistry {
	reg := &ObjectsRegistry{byScheme: make(map[string]ports.ObjectsRepository, len(repos))}
	for _, repo := range repos {
		reg.byScheme[repo.Scheme()] = repo
	}
	return reg
}

func (r *ObjectsRegistry) resolve(rawURL string) (ports.ObjectsRepository, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse object url: %w", err)
	}
	repo, ok := r.byScheme[parsed.Scheme]
	if !ok {
		return nil, fmt.Errorf("no object store registered for scheme %q", parsed.Scheme)
	}
	return repo, nil
}

// MediaService orchestrates replica ingestion: it decodes and thumbnails an
// uploaded stream, persists the original to object storage, and records
// both in the media aggregate as a single logical unit of work. A failure
// partway through is rolled back by deleting whatever was already written,
// since the object store and the database cannot share one transaction.
type MediaService struct {
	media    ports.MediaRepository
	replicas ports.ReplicasRepository
	objects  *ObjectsRegistry
	imaging  ports.ImageProcessor
}

// NewMediaService wires a MediaService from its dependent repositories.
func NewMediaService(media ports.MediaRepository, replicas ports.ReplicasRepository, objects *ObjectsRegistry, imaging ports.ImageProcessor) *MediaService {
	return &MediaService{media: media, replicas: replicas, objects: objects, imaging: imaging}
}

// CreateReplica decodes stream, derives a thumbnail, stores the original
// bytes at originalURL, and registers the replica against mediumID.
func (s *MediaService) CreateReplica(ctx context.Context, mediumID domain.MediumID, originalURL string, stream io.Reader) (domain.Replica, error) {
	store, err := s.objects.resolve(originalURL)
	if err != nil {
		return domain.Replica{}, apperr.Wrap(err)
	}

	var buf bytes.Buffer
	original, thumbnail, err := s.imaging.GenerateThumbnail(ctx, io.TeeReader(stream, &buf))
	if err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("generate thumbnail: %w", err))
	}

	if _, err := store.Put(ctx, originalURL, bytes.NewReader(buf.Bytes()), ports.OverwritePolicyFail); err != nil {
		return domain.Replica{}, err
	}

	replica, err := s.replicas.Create(ctx, mediumID,
		&ports.ImageData{Bytes: thumbnail.Bytes, Size: thumbnail.Size},
		originalURL,
		ports.ImageData{Bytes: buf.Bytes(), MimeType: original.MimeType, Size: original.Size},
	)
	if err != nil {
		_, _ = store.Delete(ctx, originalURL)
		return domain.Replica{}, err
	}

	return replica, nil
}

// UpdateReplicaByID re-derives the thumbnail from stream and replaces the
// original bytes at the replica's existing URL.
func (s *MediaService) UpdateReplicaByID(ctx context.Context, id domain.ReplicaID, stream io.Reader) (domain.Replica, error) {
	existing, err := s.replicas.FetchByIDs(ctx, []domain.ReplicaID{id})
	if err != nil {
		return domain.Replica{}, err
	}
	if len(existing) == 0 {
		return domain.Replica{}, &apperr.ReplicaNotFound{ID: uuid.UUID(id)}
	}
	current := existing[0]

	store, err := s.objects.resolve(current.OriginalURL)
	if err != nil {
		return domain.Replica{}, apperr.Wrap(err)
	}

	var buf bytes.Buffer
	original, thumbnail, err := s.imaging.GenerateThumbnail(ctx, io.TeeReader(stream, &buf))
	if err != nil {
		return domain.Replica{}, apperr.Wrap(fmt.Errorf("generate thumbnail: %w", err))
	}

	if _, err := store.Put(ctx, current.OriginalURL, bytes.NewReader(buf.Bytes()), ports.OverwritePolicyOverwrite); err != nil {
		return domain.Replica{}, err
	}

	return s.replicas.UpdateByID(ctx, id,
		&ports.ImageData{Bytes: thumbnail.Bytes, Size: thumbnail.Size},
		nil,
		&ports.ImageData{MimeType: original.MimeType, Size: original.Size},
	)
}

// DeleteReplicaByID removes the replica's row, thumbnail, and backing
// object together. The object is deleted first: an orphaned DB row would
// surface as ReplicaNotFound on the next read, while an orphaned blob is
// invisible and leaks storage forever.
func (s *MediaService) DeleteReplicaByID(ctx context.Context, id domain.ReplicaID) (domain.DeleteResult, error) {
	existing, err := s.replicas.FetchByIDs(ctx, []domain.ReplicaID{id})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	if len(existing) == 0 {
		return domain.DeleteResult{Found: false}, nil
	}

	store, err := s.objects.resolve(existing[0].OriginalURL)
	if err != nil {
		return domain.DeleteResult{}, apperr.Wrap(err)
	}
	if _, err := store.Delete(ctx, existing[0].OriginalURL); err != nil {
		return domain.DeleteResult{}, err
	}

	return s.replicas.DeleteByID(ctx, id)
}

// DeleteMediumByID removes a medium, optionally deleting every replica's
// backing object first. Database rows cascade via foreign keys; object
// storage does not, so when deleteObjects is true each replica's blob is
// deleted explicitly before the medium row goes away. A failure deleting
// one object is logged and does not stop the rest: the medium is still
// removed and the returned DeleteResult reflects the medium row, not the
// objects. Only a failure fetching the medium itself aborts the deletion.
func (s *MediaService) DeleteMediumByID(ctx context.Context, id domain.MediumID, deleteObjects bool) (domain.DeleteResult, error) {
	if !deleteObjects {
		return s.media.DeleteByID(ctx, id)
	}

	media, err := s.media.FetchByIDs(ctx, []domain.MediumID{id}, ports.MediaHydration{Replicas: true})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	if len(media) == 0 {
		return domain.DeleteResult{Found: false}, nil
	}

	for _, replica := range media[0].Replicas {
		store, err := s.objects.resolve(replica.OriginalURL)
		if err != nil {
			log.Printf("⚠️  skipping object delete for replica %s: %v", replica.ID, err)
			continue
		}
		if _, err := store.Delete(ctx, replica.OriginalURL); err != nil {
			log.Printf("⚠️  failed to delete object %q for replica %s: %v", replica.OriginalURL, replica.ID, err)
		}
	}

	return s.media.DeleteByID(ctx, id)
}

