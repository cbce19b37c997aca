package objects

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

func TestFSRepository_PutGetDelete(t *testing.T) {
	repo, err := NewFSRepository(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "file", repo.Scheme())

	url := repo.url(repo.root + "/replicas/a.jpg")
	ctx := context.Background()

	_, err = repo.Put(ctx, url, bytes.NewReader([]byte("hello")), ports.OverwritePolicyFail)
	require.NoError(t, err)

	entry, rc, err := repo.Get(ctx, url)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), entry.Metadata.Size)

	deleted, err := repo.Delete(ctx, url)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = repo.Get(ctx, url)
	var notFound *apperr.ObjectNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestFSRepository_PutFailsOnExistingWhenPolicyIsFail(t *testing.T) {
	repo, err := NewFSRepository(t.TempDir())
	require.NoError(t, err)

	url := repo.url(repo.root + "/a.jpg")
	ctx := context.Background()

	_, err = repo.Put(ctx, url, bytes.NewReader([]byte("v1")), ports.OverwritePolicyFail)
	require.NoError(t, err)

	_, err = repo.Put(ctx, url, bytes.NewReader([]byte("v2")), ports.OverwritePolicyFail)
	var exists *apperr.ObjectAlreadyExists
	assert.ErrorAs(t, err, &exists)
}

func TestFSRepository_PutOverwrites(t *testing.T) {
	repo, err := NewFSRepository(t.TempDir())
	require.NoError(t, err)

	url := repo.url(repo.root + "/a.jpg")
	ctx := context.Background()

	_, err = repo.Put(ctx, url, bytes.NewReader([]byte("v1")), ports.OverwritePolicyFail)
	require.NoError(t, err)
	_, err = repo.Put(ctx, url, bytes.NewReader([]byte("v2")), ports.OverwritePolicyOverwrite)
	require.NoError(t, err)

	_, rc, err := repo.Get(ctx, url)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "v2", string(data))
}

func TestFSRepository_List(t *testing.T) {
	repo, err := NewFSRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"a.jpg", "b.jpg"} {
		url := repo.url(repo.root + "/replicas/" + name)
		_, err := repo.Put(ctx, url, bytes.NewReader([]byte("x")), ports.OverwritePolicyOverwrite)
		require.NoError(t, err)
	}

	entries, err := repo.List(ctx, repo.url(repo.root+"/replicas"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.jpg", entries[0].Name)
	assert.Equal(t, "b.jpg", entries[1].Name)
}

func TestFSRepository_PathRejectsEscape(t *testing.T) {
	repo, err := NewFSRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.path("file://" + repo.root + "/../../etc/passwd")
	assert.Error(t, err)
}

func TestFSRepository_DeleteMissingReturnsFalse(t *testing.T) {
	repo, err := NewFSRepository(t.TempDir())
	require.NoError(t, err)

	deleted, err := repo.Delete(context.Background(), repo.url(repo.root+"/missing.jpg"))
	require.NoError(t, err)
	assert.False(t, deleted)
}
