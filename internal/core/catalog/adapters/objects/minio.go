// Package objects implements ports.ObjectsRepository over MinIO/S3 and the
// local filesystem.
package objects

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

// MinioRepository implements ports.ObjectsRepository over a single MinIO/S3
// bucket, addressing objects by an "s3://<bucket>/<key>" URL.
type MinioRepository struct {
	client *minio.Client
	bucket string
	useSSL bool
}

// NewMinioRepository dials a MinIO/S3 endpoint and binds it to one bucket.
func NewMinioRepository(endpoint, accessKey, secretKey, region, bucket string, useSSL bool) (*MinioRepository, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client: %w", err)
	}

	return &MinioRepository{client: client, bucket: bucket, useSSL: useSSL}, nil
}

func (r *MinioRepository) Scheme() string { return "s3" }

func (r *MinioRepository) key(url string) (string, error) {
	prefix := "s3://" + r.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q is not in bucket %q", url, r.bucket)
	}
	return strings.TrimPrefix(url, prefix), nil
}

func (r *MinioRepository) url(key string) string {
	return "s3://" + r.bucket + "/" + key
}

func (r *MinioRepository) EnsureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (r *MinioRepository) Get(ctx context.Context, url string) (ports.Entry, io.ReadCloser, error) {
	key, err := r.key(url)
	if err != nil {
		return ports.Entry{}, nil, apperr.Wrap(err)
	}

	stat, err := r.client.StatObject(ctx, r.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ports.Entry{}, nil, &apperr.ObjectNotFound{URL: url}
		}
		return ports.Entry{}, nil, &apperr.ObjectGetFailed{URL: url, Err: err}
	}

	object, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return ports.Entry{}, nil, &apperr.ObjectGetFailed{URL: url, Err: err}
	}

	return ports.Entry{
		Name: key,
		URL:  url,
		Kind: ports.EntryKindObject,
		Metadata: &ports.EntryMetadata{
			Size:       stat.Size,
			ModifiedAt: stat.LastModified,
		},
	}, object, nil
}

func (r *MinioRepository) Put(ctx context.Context, url string, data io.Reader, overwrite ports.OverwritePolicy) (ports.Entry, error) {
	key, err := r.key(url)
	if err != nil {
		return ports.Entry{}, apperr.Wrap(err)
	}

	if overwrite == ports.OverwritePolicyFail {
		if _, err := r.client.StatObject(ctx, r.bucket, key, minio.StatObjectOptions{}); err == nil {
			return ports.Entry{}, &apperr.ObjectAlreadyExists{URL: url}
		}
	}

	info, err := r.client.PutObject(ctx, r.bucket, key, data, -1, minio.PutObjectOptions{})
	if err != nil {
		return ports.Entry{}, &apperr.ObjectPutFailed{URL: url, Err: err}
	}

	return ports.Entry{
		Name: key,
		URL:  url,
		Kind: ports.EntryKindObject,
		Metadata: &ports.EntryMetadata{
			Size: info.Size,
		},
	}, nil
}

func (r *MinioRepository) List(ctx context.Context, prefixURL string) ([]ports.Entry, error) {
	prefix, err := r.key(prefixURL)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	var entries []ports.Entry
	for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, apperr.Wrap(fmt.Errorf("list objects: %w", obj.Err))
		}
		entries = append(entries, ports.Entry{
			Name: obj.Key,
			URL:  r.url(obj.Key),
			Kind: ports.EntryKindObject,
			Metadata: &ports.EntryMetadata{
				Size:       obj.Size,
				ModifiedAt: obj.LastModified,
			},
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (r *MinioRepository) Delete(ctx context.Context, url string) (bool, error) {
	key, err := r.key(url)
	if err != nil {
		return false, apperr.Wrap(err)
	}

	_, statErr := r.client.StatObject(ctx, r.bucket, key, minio.StatObjectOptions{})
	existed := statErr == nil

	if err := r.client.RemoveObject(ctx, r.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, apperr.Wrap(fmt.Errorf("delete object: %w", err))
	}
	return existed, nil
}
