package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

type fakeObjectsRepository struct {
	scheme     string
	objects    map[string][]byte
	putErr     error
	deleteErrs map[string]error
}

func newFakeObjectsRepository(scheme string) *fakeObjectsRepository {
	return &fakeObjectsRepository{scheme: scheme, objects: map[string][]byte{}}
}

func (f *fakeObjectsRepository) Scheme() string { return f.scheme }

func (f *fakeObjectsRepository) Get(ctx context.Context, url string) (ports.Entry, io.ReadCloser, error) {
	data, ok := f.objects[url]
	if !ok {
		return ports.Entry{}, nil, assert.AnError
	}
	return ports.Entry{URL: url}, io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectsRepository) Put(ctx context.Context, url string, data io.Reader, overwrite ports.OverwritePolicy) (ports.Entry, error) {
	if f.putErr != nil {
		return ports.Entry{}, f.putErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return ports.Entry{}, err
	}
	f.objects[url] = raw
	return ports.Entry{URL: url}, nil
}

func (f *fakeObjectsRepository) List(ctx context.Context, prefixURL string) ([]ports.Entry, error) {
	return nil, nil
}

func (f *fakeObjectsRepository) Delete(ctx context.Context, url string) (bool, error) {
	if err, ok := f.deleteErrs[url]; ok {
		return false, err
	}
	_, existed := f.objects[url]
	delete(f.objects, url)
	return existed, nil
}

type fakeImageProcessor struct {
	original  ports.OriginalImage
	thumbnail ports.ThumbnailImage
	err       error
}

func (f *fakeImageProcessor) GenerateThumbnail(ctx context.Context, stream io.Reader) (ports.OriginalImage, ports.ThumbnailImage, error) {
	if f.err != nil {
		return ports.OriginalImage{}, ports.ThumbnailImage{}, f.err
	}
	if _, err := io.Copy(io.Discard, stream); err != nil {
		return ports.OriginalImage{}, ports.ThumbnailImage{}, err
	}
	return f.original, f.thumbnail, nil
}

type fakeReplicasRepository struct {
	created  []domain.Replica
	byID     map[domain.ReplicaID]domain.Replica
	createFn func(mediumID domain.MediumID, thumbnail *ports.ImageData, originalURL string, original ports.ImageData) (domain.Replica, error)
	deleted  []domain.ReplicaID
}

func newFakeReplicasRepository() *fakeReplicasRepository {
	return &fakeReplicasRepository{byID: map[domain.ReplicaID]domain.Replica{}}
}

func (f *fakeReplicasRepository) Create(ctx context.Context, mediumID domain.MediumID, thumbnail *ports.ImageData, originalURL string, original ports.ImageData) (domain.Replica, error) {
	if f.createFn != nil {
		return f.createFn(mediumID, thumbnail, originalURL, original)
	}
	replica := domain.Replica{ID: domain.ReplicaID(uuid.New()), MediumID: mediumID, OriginalURL: originalURL, MimeType: original.MimeType, Size: original.Size}
	f.byID[replica.ID] = replica
	f.created = append(f.created, replica)
	return replica, nil
}

func (f *fakeReplicasRepository) FetchByIDs(ctx context.Context, ids []domain.ReplicaID) ([]domain.Replica, error) {
	result := make([]domain.Replica, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.byID[id]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeReplicasRepository) FetchByOriginalURL(ctx context.Context, url string) (domain.Replica, bool, error) {
	for _, r := range f.byID {
		if r.OriginalURL == url {
			return r, true, nil
		}
	}
	return domain.Replica{}, false, nil
}

func (f *fakeReplicasRepository) FetchThumbnailByID(ctx context.Context, id domain.ReplicaID) ([]byte, error) {
	return nil, nil
}

func (f *fakeReplicasRepository) UpdateByID(ctx context.Context, id domain.ReplicaID, thumbnail *ports.ImageData, originalURL *string, original *ports.ImageData) (domain.Replica, error) {
	r, ok := f.byID[id]
	if !ok {
		return domain.Replica{}, assert.AnError
	}
	if original != nil {
		r.MimeType = original.MimeType
		r.Size = original.Size
	}
	f.byID[id] = r
	return r, nil
}

func (f *fakeReplicasRepository) DeleteByID(ctx context.Context, id domain.ReplicaID) (domain.DeleteResult, error) {
	if _, ok := f.byID[id]; !ok {
		return domain.DeleteResult{Found: false}, nil
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return domain.DeleteResult{Found: true, Deleted: 1}, nil
}

type fakeMediaRepository struct {
	media map[domain.MediumID]domain.Medium
}

func (f *fakeMediaRepository) Create(ctx context.Context, params ports.MediaCreateParams) (domain.Medium, error) {
	return domain.Medium{}, nil
}

func (f *fakeMediaRepository) FetchByIDs(ctx context.Context, ids []domain.MediumID, hydration ports.MediaHydration) ([]domain.Medium, error) {
	result := make([]domain.Medium, 0, len(ids))
	for _, id := range ids {
		if m, ok := f.media[id]; ok {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeMediaRepository) FetchAll(ctx context.Context, params ports.MediaFetchAllParams) ([]domain.Medium, error) {
	return nil, nil
}

func (f *fakeMediaRepository) FetchBySourceIDs(ctx context.Context, sourceIDs []domain.SourceID, params ports.MediaFetchAllParams) ([]domain.Medium, error) {
	return nil, nil
}

func (f *fakeMediaRepository) FetchByTagIDs(ctx context.Context, attachments []ports.TagAttachment, params ports.MediaFetchAllParams) ([]domain.Medium, error) {
	return nil, nil
}

func (f *fakeMediaRepository) UpdateByID(ctx context.Context, id domain.MediumID, params ports.MediaUpdateParams) (domain.Medium, error) {
	return domain.Medium{}, nil
}

func (f *fakeMediaRepository) DeleteByID(ctx context.Context, id domain.MediumID) (domain.DeleteResult, error) {
	if _, ok := f.media[id]; !ok {
		return domain.DeleteResult{Found: false}, nil
	}
	delete(f.media, id)
	return domain.DeleteResult{Found: true, Deleted: 1}, nil
}

func TestMediaService_CreateReplica(t *testing.T) {
	store := newFakeObjectsRepository("file")
	registry := NewObjectsRegistry(store)
	processor := &fakeImageProcessor{
		original:  ports.OriginalImage{MimeType: "image/png", Size: domain.Size{Width: 100, Height: 100}},
		thumbnail: ports.ThumbnailImage{Bytes: []byte("thumb"), Size: domain.Size{Width: 50, Height: 50}},
	}
	replicas := newFakeReplicasRepository()
	svc := NewMediaService(&fakeMediaRepository{media: map[domain.MediumID]domain.Medium{}}, replicas, registry, processor)

	mediumID := domain.MediumID(uuid.New())
	replica, err := svc.CreateReplica(context.Background(), mediumID, "file:///replicas/a.png", bytes.NewReader([]byte("image-bytes")))
	require.NoError(t, err)
	assert.Equal(t, mediumID, replica.MediumID)
	assert.Equal(t, []byte("image-bytes"), store.objects["file:///replicas/a.png"])
}

func TestMediaService_CreateReplica_RollsBackObjectOnRepositoryFailure(t *testing.T) {
	store := newFakeObjectsRepository("file")
	registry := NewObjectsRegistry(store)
	processor := &fakeImageProcessor{
		original:  ports.OriginalImage{MimeType: "image/png"},
		thumbnail: ports.ThumbnailImage{Bytes: []byte("thumb")},
	}
	replicas := newFakeReplicasRepository()
	replicas.createFn = func(domain.MediumID, *ports.ImageData, string, ports.ImageData) (domain.Replica, error) {
		return domain.Replica{}, assert.AnError
	}
	svc := NewMediaService(&fakeMediaRepository{media: map[domain.MediumID]domain.Medium{}}, replicas, registry, processor)

	_, err := svc.CreateReplica(context.Background(), domain.MediumID(uuid.New()), "file:///replicas/a.png", bytes.NewReader([]byte("x")))
	require.Error(t, err)
	_, stillExists := store.objects["file:///replicas/a.png"]
	assert.False(t, stillExists, "object should be deleted when the repository write fails")
}

func TestMediaService_DeleteReplicaByID(t *testing.T) {
	store := newFakeObjectsRepository("file")
	store.objects["file:///replicas/a.png"] = []byte("x")
	registry := NewObjectsRegistry(store)
	replicas := newFakeReplicasRepository()
	replicaID := domain.ReplicaID(uuid.New())
	replicas.byID[replicaID] = domain.Replica{ID: replicaID, OriginalURL: "file:///replicas/a.png"}

	svc := NewMediaService(&fakeMediaRepository{media: map[domain.MediumID]domain.Medium{}}, replicas, registry, &fakeImageProcessor{})

	result, err := svc.DeleteReplicaByID(context.Background(), replicaID)
	require.NoError(t, err)
	assert.True(t, result.Found)
	_, objectStillExists := store.objects["file:///replicas/a.png"]
	assert.False(t, objectStillExists)
}

func TestMediaService_DeleteReplicaByID_NotFound(t *testing.T) {
	registry := NewObjectsRegistry(newFakeObjectsRepository("file"))
	svc := NewMediaService(&fakeMediaRepository{media: map[domain.MediumID]domain.Medium{}}, newFakeReplicasRepository(), registry, &fakeImageProcessor{})

	result, err := svc.DeleteReplicaByID(context.Background(), domain.ReplicaID(uuid.New()))
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestMediaService_DeleteMediumByID_DeletesEveryReplicaObject(t *testing.T) {
	store := newFakeObjectsRepository("file")
	store.objects["file:///a.png"] = []byte("a")
	store.objects["file:///b.png"] = []byte("b")
	registry := NewObjectsRegistry(store)

	mediumID := domain.MediumID(uuid.New())
	media := &fakeMediaRepository{media: map[domain.MediumID]domain.Medium{
		mediumID: {
			ID: mediumID,
			Replicas: []domain.Replica{
				{OriginalURL: "file:///a.png"},
				{OriginalURL: "file:///b.png"},
			},
		},
	}}

	svc := NewMediaService(media, newFakeReplicasRepository(), registry, &fakeImageProcessor{})

	result, err := svc.DeleteMediumByID(context.Background(), mediumID, true)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Len(t, store.objects, 0)
}

func TestMediaService_DeleteMediumByID_SkipsObjectsWhenNotRequested(t *testing.T) {
	store := newFakeObjectsRepository("file")
	store.objects["file:///a.png"] = []byte("a")
	registry := NewObjectsRegistry(store)

	mediumID := domain.MediumID(uuid.New())
	media := &fakeMediaRepository{media: map[domain.MediumID]domain.Medium{
		mediumID: {
			ID:       mediumID,
			Replicas: []domain.Replica{{OriginalURL: "file:///a.png"}},
		},
	}}

	svc := NewMediaService(media, newFakeReplicasRepository(), registry, &fakeImageProcessor{})

	result, err := svc.DeleteMediumByID(context.Background(), mediumID, false)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Len(t, store.objects, 1, "object must survive when delete_objects=false")
}

func TestMediaService_DeleteMediumByID_ObjectDeleteFailureDoesNotBlockMediumDeletion(t *testing.T) {
	store := newFakeObjectsRepository("file")
	store.objects["file:///a.png"] = []byte("a")
	store.objects["file:///b.png"] = []byte("b")
	store.deleteErrs = map[string]error{"file:///a.png": assert.AnError}
	registry := NewObjectsRegistry(store)

	mediumID := domain.MediumID(uuid.New())
	media := &fakeMediaRepository{media: map[domain.MediumID]domain.Medium{
		mediumID: {
			ID: mediumID,
			Replicas: []domain.Replica{
				{OriginalURL: "file:///a.png"},
				{OriginalURL: "file:///b.png"},
			},
		},
	}}

	svc := NewMediaService(media, newFakeReplicasRepository(), registry, &fakeImageProcessor{})

	result, err := svc.DeleteMediumByID(context.Background(), mediumID, true)
	require.NoError(t, err)
	assert.True(t, result.Found, "medium is deleted even though one object delete failed")
	_, stillMedia := media.media[mediumID]
	assert.False(t, stillMedia)
	assert.Contains(t, store.objects, "file:///a.png", "failed delete leaves the object in place")
	assert.NotContains(t, store.objects, "file:///b.png")
}

func TestObjectsRegistry_ResolveUnknownScheme(t *testing.T) {
	registry := NewObjectsRegistry(newFakeObjectsRepository("file"))
	_, err := registry.resolve("s3://bucket/key")
	assert.Error(t, err)
}
